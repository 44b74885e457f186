package gateway

// Result is the tagged outcome handed to the UI layer: either OK with Data,
// or a Kind with a user facing Message.
type Result[T any] struct {
	OK      bool      `json:"ok"`
	Data    T         `json:"data,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
}

func ResultOf[T any](data T, err error) Result[T] {
	if err == nil {
		return Result[T]{OK: true, Data: data}
	}
	kind := KindOf(err)
	if kind == "" {
		kind = KindFetchFailed
	}
	return Result[T]{Kind: kind, Message: MessageOf(err)}
}
