package rexx

// Statement is one executable clause. Control constructs are flattened:
// bodies follow their opener and Jump holds the target statement index.
type Statement struct {
	Op   opcode
	Line int
	Name string
	Expr *Expr
	Args []*Expr
	Jump int
	V    any
}

type opcode int

const (
	opnop opcode = iota
	oplabel
	opassign
	opsay
	opif
	opjump
	opdo
	opend
	opleave
	opiterate
	opcall
	opreturn
	opexit
	opsignal
	opsignalvalue
	opsignalon
	opsignaloff
	opaddress
	opcommand
	opmethod
	opexpr
	opinterpret
	opnointerpret
	opnumeric
	opparse
	oppush
	opqueue
	opdrop
	optrace
	oprequire
	opinterpolation
)

func (op opcode) String() string {
	switch op {
	case opnop:
		return "nop"
	case oplabel:
		return "label"
	case opassign:
		return "assign"
	case opsay:
		return "say"
	case opif:
		return "if"
	case opjump:
		return "jump"
	case opdo:
		return "do"
	case opend:
		return "end"
	case opleave:
		return "leave"
	case opiterate:
		return "iterate"
	case opcall:
		return "call"
	case opreturn:
		return "return"
	case opexit:
		return "exit"
	case opsignal:
		return "signal"
	case opsignalvalue:
		return "signal value"
	case opsignalon:
		return "signal on"
	case opsignaloff:
		return "signal off"
	case opaddress:
		return "address"
	case opcommand:
		return "command"
	case opmethod:
		return "method"
	case opexpr:
		return "expr"
	case opinterpret:
		return "interpret"
	case opnointerpret:
		return "no-interpret"
	case opnumeric:
		return "numeric"
	case opparse:
		return "parse"
	case oppush:
		return "push"
	case opqueue:
		return "queue"
	case opdrop:
		return "drop"
	case optrace:
		return "trace"
	case oprequire:
		return "require"
	case opinterpolation:
		return "interpolation"
	default:
		panic(op)
	}
}

// doLoop holds the controls of a repetitive DO.
type doLoop struct {
	Var     string
	Init    *Expr
	To      *Expr
	By      *Expr
	For     *Expr
	Count   *Expr
	Over    *Expr
	While   *Expr
	Until   *Expr
	Forever bool
}

// addressClause is an ADDRESS instruction or a command routed to the
// current target.
type addressClause struct {
	Target  string
	Form    RoutingForm
	Command *Expr
	Keys    []string
	Remote  bool
	Alias   string
	Toggle  bool
}

// interpretClause carries the sharing policy of an INTERPRET.
type interpretClause struct {
	Policy  SharingPolicy
	Imports []string
	Exports []string
}

// parseClause is a PARSE instruction.
type parseClause struct {
	Upper     bool
	Lower     bool
	Source    string
	Var       string
	Templates [][]templateItem
}
