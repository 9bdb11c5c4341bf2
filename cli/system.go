package cli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/paul-hammant/RexxJS-sub005"
)

// systemHandler runs commands for ADDRESS SYSTEM through the shell. RC is the
// exit status, RESULT the standard output and ERRORTEXT the standard error.
// HEREDOC and LINES bodies run as a shell script. A FunctionCall runs its
// operation with the parameter values as arguments.
type systemHandler struct {
	shell string
}

func newSystemHandler() *systemHandler {
	return &systemHandler{shell: "sh"}
}

func (h *systemHandler) Dispatch(ctx context.Context, req *rexx.AddressRequest) (*rexx.AddressResult, error) {
	var cmd *exec.Cmd
	switch req.Form {
	case rexx.FunctionCall:
		var args []string
		if req.Params != nil {
			req.Params.Range(func(_ string, v any) bool {
				args = append(args, rexxString(v))
				return true
			})
		}
		cmd = exec.CommandContext(ctx, req.Operation, args...)
	case rexx.HeredocBlock, rexx.LinesCapture:
		cmd = exec.CommandContext(ctx, h.shell, "-s")
		cmd.Stdin = strings.NewReader(req.Command)
	default:
		cmd = exec.CommandContext(ctx, h.shell, "-c", req.Command)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	err := cmd.Run()
	res := &rexx.AddressResult{
		Result:    strings.TrimRight(stdout.String(), "\n"),
		ErrorText: strings.TrimRight(stderr.String(), "\n"),
	}
	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		res.RC = ee.ExitCode()
	}
	return res, nil
}

func rexxString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := rexx.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
