// SPDX-License-Identifier: Apache-2.0

package db

import (
	"fmt"

	"github.com/xataio/qbench/internal/connstr"
)

// ConnectionError is returned when a session cannot be established.
type ConnectionError struct {
	Engine connstr.Engine
	Err    error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("unable to connect to %s database: %s", e.Engine, e.Err)
}

func (e ConnectionError) Unwrap() error {
	return e.Err
}
