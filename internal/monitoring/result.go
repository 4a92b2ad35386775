package monitoring

type Op string

const (
	OpLoad      Op = "load"
	OpSubscribe Op = "subscribe"
	OpAdd       Op = "add"
	OpToggle    Op = "toggle"
	OpDelete    Op = "delete"
)

// Result is the outcome of a controller operation. Remote failures have
// already been logged; the caller decides whether to show them.
type Result struct {
	Op        Op
	Err       error
	Stale     bool // load finished after a newer one and was discarded
	Cancelled bool // delete not confirmed
}

func (r Result) OK() bool { return r.Err == nil && !r.Cancelled }

// Surface reports whether the error should reach the operator. Only add
// failures do; the rest are log-only and the page simply does not change.
func (r Result) Surface() bool { return r.Err != nil && r.Op == OpAdd }
