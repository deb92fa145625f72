//go:build tools

package afterhours

import (
	_ "go.uber.org/mock/mockgen"
)
