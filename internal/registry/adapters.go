// Package registry links in every frame based controller adapter so it
// registers itself with controller.RegisterAdapter.
package registry

import (
	_ "github.com/padlink/dsubridge/controller/ds4hid"          // Register DualShock 4 USB report adapter
	_ "github.com/padlink/dsubridge/controller/steamcontroller" // Register Steam Controller adapter
)
