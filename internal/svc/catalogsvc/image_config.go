package catalogsvc

// ImageConfig holds configuration parameters for product images.
type ImageConfig struct {
	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`
	// MaxSize is the largest accepted upload in bytes.
	MaxSize int64 `env:"MAX_SIZE" default:"10485760"`
	// MaxWidth caps the width a resized variant may be requested at.
	MaxWidth int `env:"MAX_WIDTH" default:"2048"`
}
