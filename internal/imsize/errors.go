package imsize

import "errors"

var (
	// ErrFormat indicates bytes that do not match the signature or
	// structure expected for the format implied by the file extension.
	ErrFormat = errors.New("imsize: invalid image format")

	// ErrMetadataMissing indicates an absent or unreadable EXIF block
	// in a format that requires one. Batch callers can skip the file
	// and keep going.
	ErrMetadataMissing = errors.New("imsize: image metadata missing")

	// ErrReservedStructure indicates a vendor sub-structure (such as a
	// JPEG MPF block) that matched its signature but deviates from the
	// fixed layout it is required to have.
	ErrReservedStructure = errors.New("imsize: reserved structure violation")
)
