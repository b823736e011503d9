// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
)

// Permission names a capability the sensor needs before it may start.
type Permission string

const (
	PermAccelerometer Permission = "accelerometer"
	PermGyroscope     Permission = "gyroscope"
)

// RequiredPermissions are the grants a relative orientation sensor needs.
var RequiredPermissions = []Permission{PermAccelerometer, PermGyroscope}

// PermissionState is the answer to a permission query.
type PermissionState string

const (
	Granted PermissionState = "granted"
	Denied  PermissionState = "denied"
	Prompt  PermissionState = "prompt"
)

// PermissionQuerier answers whether a capability was granted.
type PermissionQuerier interface {
	Query(ctx context.Context, p Permission) (PermissionState, error)
}

// StaticPermissions grants exactly the listed permissions.
type StaticPermissions map[Permission]PermissionState

// GrantAll returns a querier granting every listed permission.
func GrantAll(perms ...Permission) StaticPermissions {
	s := make(StaticPermissions, len(perms))
	for _, p := range perms {
		s[p] = Granted
	}
	return s
}

// ParsePermissions builds a StaticPermissions from config names.
func ParsePermissions(names []string) StaticPermissions {
	perms := make([]Permission, 0, len(names))
	for _, n := range names {
		perms = append(perms, Permission(n))
	}
	return GrantAll(perms...)
}

func (s StaticPermissions) Query(_ context.Context, p Permission) (PermissionState, error) {
	if st, ok := s[p]; ok {
		return st, nil
	}
	return Denied, nil
}

// DevicePermissions grants a capability when every backing device node can be
// opened for reading and writing by this process.
type DevicePermissions struct {
	Paths []string
}

func (d DevicePermissions) Query(ctx context.Context, _ Permission) (PermissionState, error) {
	for _, path := range d.Paths {
		if err := ctx.Err(); err != nil {
			return Denied, err
		}
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
				return Denied, nil
			}
			return Denied, fmt.Errorf("probe %s: %w", path, err)
		}
		f.Close()
	}
	return Granted, nil
}

// QueryAll asks for every permission concurrently and reports whether all of
// them were granted.
func QueryAll(ctx context.Context, q PermissionQuerier, perms ...Permission) (bool, error) {
	states := make([]PermissionState, len(perms))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range perms {
		g.Go(func() error {
			st, err := q.Query(gctx, p)
			if err != nil {
				return fmt.Errorf("query %s: %w", p, err)
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	for _, st := range states {
		if st != Granted {
			return false, nil
		}
	}
	return true, nil
}
