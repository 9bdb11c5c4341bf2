package rexx_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/paul-hammant/RexxJS-sub005"
)

func ExampleInterpreter_Run() {
	prog, err := rexx.Parse(`
parse arg who
do i = 1 to 3
  say 'hello' who i
end
exit i - 1
`)
	if err != nil {
		log.Fatalln(err)
	}
	status, err := rexx.New(rexx.WithOutput(os.Stdout)).Run(context.Background(), prog, "world")
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Println("exit code:", status.Code)

	// Output:
	// hello world 1
	// hello world 2
	// hello world 3
	// exit code: 3
}

func ExampleWithFunction() {
	prog, err := rexx.Parse(`say shout('quiet', '!')`)
	if err != nil {
		log.Fatalln(err)
	}
	shout := rexx.WithFunction("shout", 1, 2, func(_ context.Context, args []any) (any, error) {
		s := strings.ToUpper(args[0].(string))
		if len(args) > 1 {
			s += args[1].(string)
		}
		return s, nil
	})
	if _, err := rexx.New(rexx.WithOutput(os.Stdout), shout).Run(context.Background(), prog); err != nil {
		log.Fatalln(err)
	}

	// Output:
	// QUIET!
}

func ExampleWithAddressHandler() {
	prog, err := rexx.Parse(`
ADDRESS KV
set key='color' value='blue'
'get color'
say rc result
`)
	if err != nil {
		log.Fatalln(err)
	}
	store := map[string]any{}
	kv := rexx.AddressHandlerFunc(func(_ context.Context, req *rexx.AddressRequest) (*rexx.AddressResult, error) {
		if req.Form == rexx.FunctionCall {
			key, _ := req.Params.Get("key")
			store[key.(string)], _ = req.Params.Get("value")
			return &rexx.AddressResult{}, nil
		}
		op, key, _ := strings.Cut(req.Command, " ")
		if v, ok := store[key]; ok && op == "get" {
			return &rexx.AddressResult{Result: v}, nil
		}
		return &rexx.AddressResult{RC: 1, ErrorText: "unknown key"}, nil
	})
	if _, err := rexx.New(rexx.WithOutput(os.Stdout), rexx.WithAddressHandler("KV", kv)).
		Run(context.Background(), prog); err != nil {
		log.Fatalln(err)
	}

	// Output:
	// 0 blue
}

func ExampleParse() {
	_, err := rexx.Parse("do i = 1 to 3\n  say i\n")
	fmt.Println(err)

	// Output:
	// syntax error: line 3: missing END
}

func ExampleEnvironment() {
	env := rexx.NewEnvironment()
	env.Set("Total", "10")
	env.Set("item.", "none")
	env.Set("item.1", "apple")
	v, _ := env.Get("TOTAL")
	fmt.Println(v)
	v, _ = env.Get("ITEM.7")
	fmt.Println(v)
	fmt.Println(env.GetStem("item"))
	fmt.Println(env.Names())

	// Output:
	// 10
	// none
	// [apple]
	// [Total item. item.1]
}
