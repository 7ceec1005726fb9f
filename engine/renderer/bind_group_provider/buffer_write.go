package bind_group_provider

// BufferWrite is a staged upload into the buffer stored under Binding on Provider. Writes are
// collected while a command buffer is translated and flushed to the queue before submission.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
