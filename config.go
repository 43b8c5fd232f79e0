// Copyright (C) bridgeorm authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package engine is the operation layer: the component that actually
// issues driver calls. It wires together security, schema, validate,
// convert, tracker and link into the insert/find/update/delete surface the
// host binding uses, against the canonical driver
// (go.mongodb.org/mongo-driver/v2) rather than a reimplementation of its
// wire protocol.
package engine

import (
	"fmt"
	"time"
)

// Config is the typed form of the connection mapping the host binding
// supplies. Opening a Client validates it before ever touching the network.
type Config struct {
	URL               string
	MaxPoolSize       uint64
	MinPoolSize       uint64
	ConnectTimeout    time.Duration
	SocketTimeout     time.Duration
	ParallelThreshold int
	AppName           string
}

// Validate reports a configuration error before Connect ever dials out.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("engine: Config.URL must not be empty")
	}
	if c.MaxPoolSize > 0 && c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("engine: Config.MinPoolSize (%d) exceeds MaxPoolSize (%d)", c.MinPoolSize, c.MaxPoolSize)
	}
	if c.ConnectTimeout < 0 || c.SocketTimeout < 0 {
		return fmt.Errorf("engine: Config timeouts must not be negative")
	}
	if c.ParallelThreshold < 0 {
		return fmt.Errorf("engine: Config.ParallelThreshold must not be negative")
	}
	return nil
}

func (c Config) parallelThreshold() int {
	if c.ParallelThreshold <= 0 {
		return 0 // delegate to convert's own DefaultParallelThreshold
	}
	return c.ParallelThreshold
}
