package optimizer

import (
	"image"

	exif "github.com/dsoprea/go-exif/v3"
)

// readOrientation returns the EXIF Orientation (1-8) stored in data, or 1
// when the tag is absent or unreadable. Malformed EXIF never fails a
// conversion.
func readOrientation(data []byte) (orientation int) {
	orientation = 1
	defer func() {
		if recover() != nil {
			orientation = 1
		}
	}()

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return 1
	}
	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return 1
	}

	found := 0
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		v := orientationValue(tag.Value)
		if v == 0 {
			continue
		}
		// IFD1 describes the thumbnail; only IFD0 applies to the main image.
		if tag.IfdPath == "IFD" {
			found = v
			break
		}
		if found == 0 {
			found = v
		}
	}
	if found < 1 || found > 8 {
		return 1
	}
	return found
}

func orientationValue(value interface{}) int {
	switch v := value.(type) {
	case []uint16:
		if len(v) > 0 {
			return int(v[0])
		}
	case uint16:
		return int(v)
	case []uint32:
		if len(v) > 0 {
			return int(v[0])
		}
	}
	return 0
}

// applyOrientation returns img transformed so that it displays upright
// without the EXIF tag.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	src := toNRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))

	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			var sx, sy int
			switch orientation {
			case 2:
				sx, sy = w-1-x, y
			case 3:
				sx, sy = w-1-x, h-1-y
			case 4:
				sx, sy = x, h-1-y
			case 5:
				sx, sy = y, x
			case 6:
				sx, sy = y, h-1-x
			case 7:
				sx, sy = w-1-y, h-1-x
			case 8:
				sx, sy = w-1-y, x
			}
			dst.SetNRGBA(x, y, src.NRGBAAt(sx, sy))
		}
	}
	return dst
}
