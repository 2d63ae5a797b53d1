// internal/receiver/factory.go
package receiver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// Object is a live automation object, such as an open document or a browser tab.
type Object interface {
	Name() string
	Invoke(ctx context.Context, method string, args map[string]any) (any, error)
}

// Bridge attaches to running applications of one automation family.
type Bridge interface {
	Objects(ctx context.Context, family string) ([]Object, error)
}

// Receiver executes named operations against one bound object.
type Receiver interface {
	Name() string
	Root() string
	Family() string
	Supports(operation string) bool
	Execute(ctx context.Context, operation string, args schemas.Args) (any, error)
	Commands() []Command
}

// Constructor binds a receiver of one kind to a live object.
type Constructor func(entry Entry, obj Object) Receiver

// bound is the part every API receiver shares.
type bound struct {
	*CommandSet
	entry Entry
	obj   Object
}

func (b *bound) Name() string   { return b.obj.Name() }
func (b *bound) Root() string   { return b.entry.Root }
func (b *bound) Family() string { return b.entry.Family }

// -- Factory --

// Factory resolves application roots to live receivers.
type Factory struct {
	logger       *zap.Logger
	registry     *Registry
	bridges      map[string]Bridge
	constructors map[Kind]Constructor
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithBridge registers the bridge that serves an object family.
func WithBridge(family string, b Bridge) FactoryOption {
	return func(f *Factory) { f.bridges[family] = b }
}

// WithConstructor overrides or adds a receiver kind.
func WithConstructor(kind Kind, c Constructor) FactoryOption {
	return func(f *Factory) { f.constructors[kind] = c }
}

// NewFactory creates a factory with the document and browser kinds installed.
func NewFactory(logger *zap.Logger, registry *Registry, opts ...FactoryOption) *Factory {
	f := &Factory{
		logger:   logger.Named("receiver_factory"),
		registry: registry,
		bridges:  make(map[string]Bridge),
		constructors: map[Kind]Constructor{
			KindDocument: NewDocumentReceiver,
			KindBrowser:  NewBrowserReceiver,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Registry returns the table the factory resolves against.
func (f *Factory) Registry() *Registry { return f.registry }

// CreateReceiver attaches to the running instance of root whose object name
// best matches processName. The root is validated before the receiver kind.
func (f *Factory) CreateReceiver(ctx context.Context, root, processName string) (Receiver, error) {
	entry, ok := f.registry.Lookup(root)
	if !ok {
		return nil, &ConfigurationError{Root: root, Reason: "app root is not supported"}
	}
	construct, ok := f.constructors[entry.Receiver]
	if entry.Receiver == "" || !ok {
		return nil, &ConfigurationError{Root: root, Reason: fmt.Sprintf("no receiver is registered for this app root (receiver kind %q)", entry.Receiver)}
	}
	bridge, ok := f.bridges[entry.Family]
	if !ok {
		return nil, &ConfigurationError{Root: root, Reason: fmt.Sprintf("no automation bridge for object family %q", entry.Family)}
	}

	objects, err := bridge.Objects(ctx, entry.Family)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s objects: %w", entry.Family, err)
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%s (%s): %w", root, entry.Family, ErrNoRunningInstance)
	}

	names := make([]string, len(objects))
	for i, o := range objects {
		names[i] = o.Name()
	}
	match, idx := AppMatch(names, processName, entry.Suffix)
	f.logger.Debug("Matched running instance.",
		zap.String("root", root),
		zap.String("process_name", processName),
		zap.String("object", match),
		zap.Int("candidates", len(names)))

	return construct(entry, objects[idx]), nil
}
