package netpack

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/netpack/scalar"
	"github.com/unkn0wn-root/netpack/scalar/stdpack"
)

const defaultMaxFormats = 4096

// RegistryOptions tune a Registry. All fields are optional.
type RegistryOptions struct {
	Codec      scalar.Codec // nil => stdpack.Codec{}
	MaxFormats int64        // cache capacity in formats; 0 => 4096
	Logger     Logger       // nil => NopLogger
}

// Registry compiles formats on demand and caches the compiled result, so
// callers passing ad-hoc format strings still get compile-once-use-many
// behavior. Compiled formats are immutable, so cache hits are shared
// between callers without copying.
type Registry struct {
	codec scalar.Codec
	cache *ristretto.Cache
	log   Logger
}

// NewRegistry builds a Registry with a Ristretto-backed format cache.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	r := &Registry{codec: opts.Codec}
	if r.codec == nil {
		r.codec = stdpack.Codec{}
	}
	r.log = coalesce[Logger](opts.Logger, NopLogger{})

	maxFormats := coalesce[int64](opts.MaxFormats, defaultMaxFormats)
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxFormats * 10,
		MaxCost:     maxFormats,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("netpack: registry cache: %w", err)
	}
	r.cache = c
	return r, nil
}

// Compile returns the cached compilation of format, compiling and inserting
// on miss. Compile errors are never cached.
func (r *Registry) Compile(format []byte) (*Format, error) {
	key := string(format)
	if v, ok := r.cache.Get(key); ok {
		if f, ok := v.(*Format); ok {
			return f, nil
		}
	}
	f, err := CompileWith(r.codec, format)
	if err != nil {
		return nil, err
	}
	if !r.cache.Set(key, f, 1) {
		r.log.Debug("format cache rejected insert (pressure)", Fields{"format": key})
	}
	return f, nil
}

// Pack compiles format (cached) and packs values with it.
func (r *Registry) Pack(format []byte, values ...any) ([]byte, error) {
	f, err := r.Compile(format)
	if err != nil {
		return nil, err
	}
	return f.Pack(values...)
}

// Unpack compiles format (cached) and decodes one record from data.
func (r *Registry) Unpack(format, data []byte) ([]any, error) {
	f, err := r.Compile(format)
	if err != nil {
		return nil, err
	}
	return f.Unpack(data)
}

// Begin compiles format (cached) and starts an incremental decode.
func (r *Registry) Begin(format []byte) (*Session, error) {
	f, err := r.Compile(format)
	if err != nil {
		return nil, err
	}
	return f.Begin(), nil
}

// MinimumSize returns the minimum possible packed size of format.
func (r *Registry) MinimumSize(format []byte) (int, error) {
	f, err := r.Compile(format)
	if err != nil {
		return 0, err
	}
	return f.MinSize(), nil
}

// InitialSize returns the packed size of format up to its first
// variable-length string.
func (r *Registry) InitialSize(format []byte) (int, error) {
	f, err := r.Compile(format)
	if err != nil {
		return 0, err
	}
	return f.InitialSize(), nil
}

// Wait blocks until pending cache inserts are applied. Ristretto applies
// Set asynchronously; call this if you warm formats up front and want the
// next Compile to hit.
func (r *Registry) Wait() { r.cache.Wait() }

// Close releases the cache.
func (r *Registry) Close() {
	r.cache.Wait()
	r.cache.Close()
}
