// Package prelude registers every driver provider shipped with imagefetch.
package prelude

import (
	_ "imagefetch/pkg/driver/env/native"
	_ "imagefetch/pkg/driver/env/termux"
	_ "imagefetch/pkg/driver/httpclient/native"
	_ "imagefetch/pkg/driver/httpclient/termux"
	_ "imagefetch/pkg/driver/imagedecode/ximage"
)
