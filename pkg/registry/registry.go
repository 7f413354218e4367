// Package registry collects cobra subcommands from init functions.
package registry

import (
	"sync"

	"github.com/spf13/cobra"
)

// CommandRegistry is meant to be used as a package level var; the zero value is ready.
type CommandRegistry struct {
	mu    sync.Mutex
	hooks []func(parent *cobra.Command)
}

// Register adds a hook that is run against the parent command by FillCommands.
func (r *CommandRegistry) Register(hook func(parent *cobra.Command)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// FromGetter registers the command built by getter as a child of the parent.
func (r *CommandRegistry) FromGetter(getter func() *cobra.Command) {
	r.Register(func(parent *cobra.Command) {
		parent.AddCommand(getter())
	})
}

// FillCommands runs every hook against cmd and returns it.
func (r *CommandRegistry) FillCommands(cmd *cobra.Command) *cobra.Command {
	r.mu.Lock()
	hooks := append([]func(*cobra.Command){}, r.hooks...)
	r.mu.Unlock()

	for _, hook := range hooks {
		hook(cmd)
	}
	return cmd
}
