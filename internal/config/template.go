package config

// defaultTemplate is written the first time the slicer runs. Every value
// matches Default.
const defaultTemplate = `# Scan slicer settings. Command-line flags override these values.
# On Windows, either use forward slashes or quote paths:
#   input: 'C:\scans\input'

# Place your scanned images here
input: ""

# Your sliced images will be created here
output: ""

# Skip the confirmation prompt
skip-confirm: false

# Number of parallel workers (0 = half the CPU cores)
workers: 0

# Name prefix for sliced images (empty = derived from the directory)
project-name: ""

# Match with your scanner's natural white color (0-255)
white-threshold: 230

# Accepted slice size in % of the scanned image area (0-100, exclusive)
minimum-size: 3
maximum-size: 80

# Width of the downscaled copy used for detection
working-width: 900

# Straighten slices tilted between this many degrees and 90 minus it (0-89)
# 0 = disabled
perspective-fix: 0

# Turn portrait slices a quarter turn (disable|cw|ccw)
auto-rotate: disable

# Scale with a factor, or shrink to a width or height in pixels
# The first non-zero value wins; 0 = disabled
scale-factor: 0
scale-width: 0
scale-height: 0

# Remove scanner noise (0-5)
# 0 = disabled
filter-denoise: 0

# Apply a .cube LUT with the given strength (0.0-1.0)
filter-lut-path: ""
filter-lut-strength: 0

# Color, contrast, brightness and sharpness (0.0-2.0)
# 1.0 = unchanged
filter-color: 1.0
filter-contrast: 1.0
filter-brightness: 1.0
filter-sharpness: 1.0

# Save format (png|jpeg|webp)
save-format: png

# PNG compression level (0-9)
png-optimize: false
png-compression: 3

# JPEG quality (0-95)
jpeg-optimize: false
jpeg-quality: 95

# WEBP settings: method (0-6), quality (1-100)
webp-lossless: false
webp-method: 4
webp-quality: 90

# Maximum size of test and preview images
view-width: 1280
view-height: 800
`
