package bind_group_provider

// BufferWrite describes a pending CPU-to-GPU write into the buffer bound at Binding on Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
