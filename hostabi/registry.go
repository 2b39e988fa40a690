package hostabi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/hostbind/errors"
)

// Record is one export-table entry: the name visible to the host runtime
// and the ABI entry point that serves it.
type Record struct {
	Export     string
	ModulePath string
	Entry      EntryPoint
}

// Key returns the export name qualified by the module path.
func (r Record) Key() string {
	if r.ModulePath == "" {
		return r.Export
	}
	return r.ModulePath + "." + r.Export
}

// DuplicateFunc observes a registration that replaces an earlier record
// with the same key. Tooling hooks in here for reflection over rebinds.
type DuplicateFunc func(old, next Record)

// Registry is the process-wide export table. Load-time registration
// thunks insert records; ModuleInit consumes them when the hosting module
// initializes.
type Registry struct {
	mu          sync.RWMutex
	records     map[string]Record
	order       []string
	onDuplicate DuplicateFunc
}

// NewRegistry creates an empty export table.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]Record)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide export table that generated
// registration thunks target.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register inserts a record. A duplicate key replaces the previous record;
// the previous record is handed to the duplicate callback.
func (r *Registry) Register(rec Record) error {
	if rec.Export == "" {
		return errors.InvalidInput(errors.PhaseRegister, "export name cannot be empty")
	}
	if rec.Entry == nil {
		return errors.Registration(rec.Export, errors.NilPointer(errors.PhaseRegister, nil, "hostabi.EntryPoint"))
	}

	r.mu.Lock()
	old, existed := r.records[rec.Key()]
	r.records[rec.Key()] = rec
	if !existed {
		r.order = append(r.order, rec.Key())
	}
	cb := r.onDuplicate
	r.mu.Unlock()

	if existed {
		Logger().Warn("duplicate registration", zap.String("export", rec.Key()))
		if cb != nil {
			cb(old, rec)
		}
	}
	return nil
}

// OnDuplicate sets the duplicate-registration callback.
func (r *Registry) OnDuplicate(cb DuplicateFunc) {
	r.mu.Lock()
	r.onDuplicate = cb
	r.mu.Unlock()
}

// Lookup finds a record by qualified export name.
func (r *Registry) Lookup(key string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	return rec, ok
}

// Records returns all records in registration order.
func (r *Registry) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.records[key])
	}
	return out
}

// ModuleInit creates a host function value for every record and returns
// them keyed by qualified export name. The function values trampoline into
// the entry points and surface any pending host exception as a call
// failure.
func (r *Registry) ModuleInit(env *Env) map[string]Value {
	exports := make(map[string]Value)
	for _, rec := range r.Records() {
		entry := rec.Entry
		exports[rec.Key()] = env.Function(func(this Value, args []Value) (Value, error) {
			out := entry(env, env.NewFrame(this, args...))
			if err := env.TakePending(); err != nil {
				return Value{}, errors.Thrown(err)
			}
			return out, nil
		})
	}
	Logger().Debug("module initialized", zap.Int("exports", len(exports)))
	return exports
}
