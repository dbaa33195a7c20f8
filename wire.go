package restrpc

// Request is the wire-level request handed to a transport engine. It is
// constructed fresh for every call and must be treated as immutable by
// transports. Headers holds at most one value per name; Body is nil when the
// route has no body slot.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Response is the wire-level result a transport engine hands back. It is
// consumed once by the decode stage and not retained.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}
