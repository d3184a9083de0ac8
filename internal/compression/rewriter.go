package compression

import (
	"bytes"
	"image"
	"log/slog"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// rewriter walks a document and substitutes eligible embedded images with
// smaller JPEG versions. It owns the document handle exclusively for the
// duration of one pass and must not be re-entered on the same context.
type rewriter struct {
	ctx    *model.Context
	tier   Tier
	logger *slog.Logger

	// seen guards against processing an XObject shared across pages twice.
	seen map[int]bool
}

func newRewriter(ctx *model.Context, tier Tier, logger *slog.Logger) *rewriter {
	return &rewriter{
		ctx:    ctx,
		tier:   tier,
		logger: logger,
		seen:   make(map[int]bool),
	}
}

// rewrite processes every page in page order and returns the number of
// images actually replaced plus the per-image outcomes. Failures on a
// single image are recorded as skips and never abort the pass; zero
// replacements is a valid result.
func (r *rewriter) rewrite() (int, []outcome) {
	var outcomes []outcome
	replaced := 0

	for pageNr := 1; pageNr <= r.ctx.PageCount; pageNr++ {
		for _, ref := range r.pageImages(pageNr) {
			oc := r.processImage(ref)
			outcomes = append(outcomes, oc)
			if oc.replaced {
				replaced++
				r.logger.Debug("replaced embedded image",
					"page", ref.pageNr,
					"object", ref.objNr,
					"original_size", ref.byteLen,
					"new_size", oc.newSize)
			} else if oc.skipReason != "" {
				r.logger.Debug("skipped embedded image",
					"page", ref.pageNr,
					"object", ref.objNr,
					"reason", oc.skipReason)
			}
		}
	}

	return replaced, outcomes
}

// pageImages enumerates the image XObjects referenced by one page, in
// stable name order.
func (r *rewriter) pageImages(pageNr int) []imageRef {
	pageDict, _, _, err := r.ctx.PageDict(pageNr, false)
	if err != nil || pageDict == nil {
		return nil
	}

	resources, err := r.ctx.DereferenceDict(pageDict["Resources"])
	if err != nil || resources == nil {
		return nil
	}

	xObjects, err := r.ctx.DereferenceDict(resources["XObject"])
	if err != nil || xObjects == nil {
		return nil
	}

	names := make([]string, 0, len(xObjects))
	for name := range xObjects {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []imageRef
	for _, name := range names {
		indRef, ok := xObjects[name].(types.IndirectRef)
		if !ok {
			continue
		}
		objNr := indRef.ObjectNumber.Value()
		if r.seen[objNr] {
			continue
		}

		sd, ok := r.streamDict(objNr)
		if !ok {
			continue
		}
		subtype := sd.Subtype()
		if subtype == nil || *subtype != "Image" {
			continue
		}
		r.seen[objNr] = true

		ref := imageRef{pageNr: pageNr, objNr: objNr, byteLen: len(sd.Raw)}
		if w := sd.IntEntry("Width"); w != nil {
			ref.width = *w
		}
		if h := sd.IntEntry("Height"); h != nil {
			ref.height = *h
		}
		if cs := sd.NameEntry("ColorSpace"); cs != nil {
			ref.colorMode = *cs
		}
		refs = append(refs, ref)
	}

	return refs
}

// processImage runs one image through the decision policy and re-encoder
// and commits the replacement when it clears the acceptance threshold.
func (r *rewriter) processImage(ref imageRef) outcome {
	oc := outcome{ref: ref}

	if !ShouldCompress(ref.byteLen, ref.width, ref.height) {
		oc.skipReason = "below size or dimension threshold"
		return oc
	}

	sd, ok := r.streamDict(ref.objNr)
	if !ok {
		oc.skipReason = "object unavailable"
		return oc
	}
	if m := sd.BooleanEntry("ImageMask"); m != nil && *m {
		oc.skipReason = "image mask"
		return oc
	}

	img, skipReason := r.decodeEmbedded(&sd, ref)
	if img == nil {
		oc.skipReason = skipReason
		return oc
	}

	encoded, width, height, err := reencodeImage(img, r.tier.Quality, r.tier.MaxDimension)
	if err != nil {
		r.logger.Warn("image re-encode failed",
			"page", ref.pageNr, "object", ref.objNr, "error", err)
		oc.skipReason = "re-encode failed"
		return oc
	}

	if !accepted(len(encoded), ref.byteLen) {
		oc.skipReason = "no significant reduction"
		return oc
	}

	r.replaceStream(ref.objNr, sd, encoded, width, height)
	oc.replaced = true
	oc.newSize = len(encoded)
	return oc
}

// decodeEmbedded turns an image XObject's payload into decoded pixels.
// JPEG payloads decode directly; Flate payloads are inflated and the raw
// sample buffer is reassembled. Anything else is skipped.
func (r *rewriter) decodeEmbedded(sd *types.StreamDict, ref imageRef) (image.Image, string) {
	switch filterName(sd) {
	case "DCTDecode":
		img, err := imaging.Decode(bytes.NewReader(sd.Raw))
		if err != nil {
			return nil, "undecodable JPEG payload"
		}
		return img, ""

	case "FlateDecode", "":
		if err := sd.Decode(); err != nil {
			return nil, "stream decode failed"
		}
		if bpc := sd.IntEntry("BitsPerComponent"); bpc == nil || *bpc != 8 {
			return nil, "unsupported bit depth"
		}
		comps, ok := r.colorComponents(sd)
		if !ok {
			return nil, "unsupported color space"
		}
		img, ok := imageFromSamples(sd.Content, ref.width, ref.height, comps)
		if !ok {
			return nil, "sample buffer mismatch"
		}
		return img, ""

	default:
		return nil, "unsupported filter chain"
	}
}

// colorComponents resolves the number of samples per pixel for the stream's
// color space, following ICCBased indirection.
func (r *rewriter) colorComponents(sd *types.StreamDict) (int, bool) {
	obj, err := r.ctx.Dereference(sd.Dict["ColorSpace"])
	if err != nil {
		return 0, false
	}

	switch cs := obj.(type) {
	case types.Name:
		switch cs {
		case "DeviceRGB":
			return 3, true
		case "DeviceGray":
			return 1, true
		}
	case types.Array:
		if len(cs) == 2 {
			if name, ok := cs[0].(types.Name); ok && name == "ICCBased" {
				iccObj, err := r.ctx.Dereference(cs[1])
				if err != nil {
					return 0, false
				}
				if icc, ok := iccObj.(types.StreamDict); ok {
					if n := icc.IntEntry("N"); n != nil && (*n == 1 || *n == 3) {
						return *n, true
					}
				}
			}
		}
	}
	return 0, false
}

// replaceStream swaps the image stream's payload for JPEG data and rewrites
// the dictionary entries the new encoding requires. Placement is untouched:
// the page content stream still paints the same object at the same
// rectangle, so geometry is preserved by construction.
func (r *rewriter) replaceStream(objNr int, sd types.StreamDict, jpegData []byte, width, height int) {
	length := int64(len(jpegData))

	sd.Raw = jpegData
	sd.Content = jpegData
	sd.StreamLength = &length
	sd.StreamLengthObjNr = nil
	sd.FilterPipeline = []types.PDFFilter{{Name: "DCTDecode"}}

	sd.Dict["Filter"] = types.Name("DCTDecode")
	sd.Dict["Length"] = types.Integer(length)
	sd.Dict["Width"] = types.Integer(width)
	sd.Dict["Height"] = types.Integer(height)
	sd.Dict["ColorSpace"] = types.Name("DeviceRGB")
	sd.Dict["BitsPerComponent"] = types.Integer(8)
	delete(sd.Dict, "DecodeParms")
	delete(sd.Dict, "Decode")
	delete(sd.Dict, "SMask")
	delete(sd.Dict, "Mask")

	if entry, ok := r.ctx.XRefTable.Table[objNr]; ok && entry != nil {
		entry.Object = sd
	}
}

// streamDict fetches the stream dictionary stored at an object number.
func (r *rewriter) streamDict(objNr int) (types.StreamDict, bool) {
	entry, ok := r.ctx.XRefTable.Table[objNr]
	if !ok || entry == nil || entry.Free {
		return types.StreamDict{}, false
	}
	sd, ok := entry.Object.(types.StreamDict)
	return sd, ok
}

// filterName reduces a stream's filter pipeline to the single filter this
// rewriter understands, or returns a marker for anything more exotic.
func filterName(sd *types.StreamDict) string {
	switch len(sd.FilterPipeline) {
	case 0:
		return ""
	case 1:
		return sd.FilterPipeline[0].Name
	default:
		return "multi"
	}
}

// imageFromSamples reconstructs decoded pixels from a raw 8-bit sample
// buffer. Rows of 8-bit samples carry no padding, so the buffer maps
// directly onto the image.
func imageFromSamples(samples []byte, width, height, comps int) (image.Image, bool) {
	if width <= 0 || height <= 0 {
		return nil, false
	}
	need := width * height * comps
	if len(samples) < need {
		return nil, false
	}

	switch comps {
	case 1:
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, samples[:need])
		return img, true
	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i, j := 0, 0; i < need; i, j = i+3, j+4 {
			img.Pix[j] = samples[i]
			img.Pix[j+1] = samples[i+1]
			img.Pix[j+2] = samples[i+2]
			img.Pix[j+3] = 0xff
		}
		return img, true
	}
	return nil, false
}
