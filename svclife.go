// Package svclife provides a service lifecycle state machine for embedding
// in other applications.
//
// Example usage:
//
//	svc, err := svclife.New(
//	    svclife.WithConnect(func(ctx context.Context, disconnect func()) error {
//	        return dial(ctx)
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	state, _ := svc.Connect(ctx).Wait(ctx)
//	fmt.Println(state) // Ready, or Offline if the hook failed
//
// This package re-exports the surface of pkg/lifecycle; import that package
// directly for selective import, and see pkg/reconnect and
// plugins/drainwatcher for retry and drain control around a service.
package svclife

import (
	"github.com/bft-labs/svclife/pkg/lifecycle"
)

// Service drives a service through its lifecycle phases.
type Service = lifecycle.Service

// Tracker holds a service's state and fans out change notifications.
type Tracker = lifecycle.Tracker

// Attempt is the shared result of one in-flight phase.
type Attempt = lifecycle.Attempt

// State represents the lifecycle state of a service.
type State = lifecycle.State

// Type classifies a service by which hooks it was built with.
type Type = lifecycle.Type

// Option configures optional behavior of a Service.
type Option = lifecycle.Option

// Hook function types.
type (
	InitFunc    = lifecycle.InitFunc
	ConnectFunc = lifecycle.ConnectFunc
	AuthFunc    = lifecycle.AuthFunc
)

// Service types.
const (
	TypeLocal   = lifecycle.TypeLocal
	TypePublic  = lifecycle.TypePublic
	TypePrivate = lifecycle.TypePrivate
)

// Lifecycle states.
const (
	StateCreated        = lifecycle.StateCreated
	StateInitializing   = lifecycle.StateInitializing
	StateOffline        = lifecycle.StateOffline
	StateConnecting     = lifecycle.StateConnecting
	StateOnline         = lifecycle.StateOnline
	StateAuthenticating = lifecycle.StateAuthenticating
	StateReady          = lifecycle.StateReady
)

// New creates a Service from the given options.
var New = lifecycle.New

// Option constructors.
var (
	WithInit          = lifecycle.WithInit
	WithConnect       = lifecycle.WithConnect
	WithAuth          = lifecycle.WithAuth
	WithLogger        = lifecycle.WithLogger
	WithStateListener = lifecycle.WithStateListener
)
