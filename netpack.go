package netpack

// defaultRegistry backs the package-level helpers so repeated use of the
// same format string skips recompilation.
var defaultRegistry = func() *Registry {
	r, err := NewRegistry(RegistryOptions{})
	if err != nil {
		panic(err)
	}
	return r
}()

// Pack packs values according to format. The compiled format is cached;
// hold a *Format from Compile instead if you control the call site and
// want to skip the cache lookup too.
func Pack(format []byte, values ...any) ([]byte, error) {
	return defaultRegistry.Pack(format, values...)
}

// Unpack decodes one complete record from data according to format.
// data shorter than the format requires is an ErrSize; surplus bytes are
// ignored.
func Unpack(format, data []byte) ([]any, error) {
	return defaultRegistry.Unpack(format, data)
}

// Begin starts an incremental decode of one record of format.
func Begin(format []byte) (*Session, error) {
	return defaultRegistry.Begin(format)
}

// MinimumSize returns the minimum possible packed size of format.
func MinimumSize(format []byte) (int, error) {
	return defaultRegistry.MinimumSize(format)
}

// InitialSize returns the packed size of format up to its first
// variable-length string.
func InitialSize(format []byte) (int, error) {
	return defaultRegistry.InitialSize(format)
}
