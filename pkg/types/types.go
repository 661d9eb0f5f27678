package types

// TxID identifies a transaction. Ids are assigned by the server in strictly
// increasing order starting at 0.
type TxID = uint64

// CommandKind tags a Command variant.
type CommandKind uint8

const (
	KindNop CommandKind = iota
	KindSet
	KindGet
)

func (k CommandKind) String() string {
	switch k {
	case KindSet:
		return "Set"
	case KindGet:
		return "Get"
	default:
		return "Nop"
	}
}

// Command is a single operation against the key-value state.
// The zero value is Nop.
type Command struct {
	Kind  CommandKind
	Key   string
	Value string
}

// Set builds a command that overwrites key with value.
func Set(key, value string) Command {
	return Command{Kind: KindSet, Key: key, Value: value}
}

// Get builds a command that reads key.
func Get(key string) Command {
	return Command{Kind: KindGet, Key: key}
}

// Nop builds a command that does nothing.
func Nop() Command {
	return Command{}
}

// Transaction is the durable unit of the log.
type Transaction struct {
	ID      TxID    `json:"id"`
	Command Command `json:"command"`
}

// Result is the observable outcome of applying a command.
// Found is set only for a Get on a present key.
type Result struct {
	Value string
	Found bool
}
