// Package imgutil provides the image decode capability consumed by the
// preview engine: raw bytes in, decoded image out, with oversized images
// scaled down to preview bounds.
//
// Decoding is format-agnostic. PNG, JPEG and GIF come from the standard
// library; WebP and BMP are registered via golang.org/x/image. Callers
// that need a different set of formats can supply their own DecodeFunc
// to the engine instead.
package imgutil
