// Package elevation implements the elevation-lookup capability by reading
// SRTM 30x30 GeoTIFF tiles directly, walking their IFD tags by hand. This
// is a byte-for-byte port of original_source/api/infrastructure/src/
// external/srtm.rs: no geotiff library in the example pack offers this
// narrow a read (tag lookup + strip-offset seek, no decompression), so
// encoding/binary plus os.File stays closer to what the original does
// than adopting an unrelated dependency would.
package elevation

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"strconv"

	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
	"github.com/team-azb/route-bucket-backend-sub000/internal/model"
)

type ifdTag uint16

const (
	tagImageWidth      ifdTag = 0x0100
	tagImageHeight     ifdTag = 0x0101
	tagStripOffsets    ifdTag = 0x0111
	tagModelPixelScale ifdTag = 0x830E
	tagModelTiepoint   ifdTag = 0x8482
	tagNoDataValue     ifdTag = 0xA481
)

type ifdEntry struct {
	datatype uint16
	count    uint32
	data     uint32
}

// tile is a single opened SRTM GeoTIFF: its geographic bounds, pixel
// scale, per-row strip offsets, and NODATA sentinel.
type tile struct {
	path                         string
	order                        binary.ByteOrder
	latMin, latMax               model.Latitude
	lonMin, lonMax               model.Longitude
	pixelScaleLon, pixelScaleLat float64
	stripOffsets                 []uint32
	noData                       int32
}

// openTile parses path's header and IFD without reading pixel data.
func openTile(path string) (*tile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to open SRTM tile "+path, err)
	}
	defer f.Close()

	order, ifdOffset, err := readHeader(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read SRTM header from "+path, err)
	}

	entries, err := readIfd(f, order, ifdOffset)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read SRTM IFD from "+path, err)
	}

	width, err := tagData(entries, tagImageWidth)
	if err != nil {
		return nil, err
	}
	height, err := tagData(entries, tagImageHeight)
	if err != nil {
		return nil, err
	}

	stripEntry, ok := entries[tagStripOffsets]
	if !ok {
		return nil, apperr.New(apperr.External, "SRTM tile missing StripOffsets tag")
	}
	stripOffsets, err := readUint32Array(f, order, stripEntry)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read strip offsets", err)
	}

	pixelScaleEntry, ok := entries[tagModelPixelScale]
	if !ok {
		return nil, apperr.New(apperr.External, "SRTM tile missing ModelPixelScale tag")
	}
	pixelScale, err := readFloat64Array(f, order, pixelScaleEntry, 2)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read pixel scale", err)
	}

	tiepointEntry, ok := entries[tagModelTiepoint]
	if !ok {
		return nil, apperr.New(apperr.External, "SRTM tile missing ModelTiepoint tag")
	}
	tiepoint, err := readFloat64Array(f, order, tiepointEntry, 6)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read tiepoint", err)
	}
	leftLon, upLat := tiepoint[3], tiepoint[4]
	bottomLat := upLat - pixelScale[1]*float64(height)
	rightLon := leftLon + pixelScale[0]*float64(width)

	noDataEntry, ok := entries[tagNoDataValue]
	if !ok {
		return nil, apperr.New(apperr.External, "SRTM tile missing NODATA tag")
	}
	noData, err := readNoDataValue(f, noDataEntry)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read NODATA value", err)
	}

	latMin, err := model.NewLatitude(bottomLat)
	if err != nil {
		return nil, err
	}
	latMax, err := model.NewLatitude(upLat)
	if err != nil {
		return nil, err
	}
	lonMin, err := model.NewLongitude(leftLon)
	if err != nil {
		return nil, err
	}
	lonMax, err := model.NewLongitude(rightLon)
	if err != nil {
		return nil, err
	}

	return &tile{
		path:          path,
		order:         order,
		latMin:        latMin,
		latMax:        latMax,
		lonMin:        lonMin,
		lonMax:        lonMax,
		pixelScaleLon: pixelScale[0],
		pixelScaleLat: pixelScale[1],
		stripOffsets:  stripOffsets,
		noData:        noData,
	}, nil
}

func (t *tile) contains(lat model.Latitude, lon model.Longitude) bool {
	return lat.Value() >= t.latMin.Value() && lat.Value() < t.latMax.Value() &&
		lon.Value() >= t.lonMin.Value() && lon.Value() < t.lonMax.Value()
}

// get reads the raw i16 elevation sample for coord, returning nil when the
// tile reports its NODATA sentinel at that pixel.
func (t *tile) get(lat model.Latitude, lon model.Longitude) (*model.Elevation, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to open SRTM tile "+t.path, err)
	}
	defer f.Close()

	lonIdx := uint32((lon.Value() - t.lonMin.Value()) / t.pixelScaleLon)
	latIdx := uint32((t.latMax.Value() - lat.Value()) / t.pixelScaleLat)
	if int(latIdx) >= len(t.stripOffsets) {
		return nil, apperr.New(apperr.External, "SRTM row index out of range")
	}

	offset := int64(t.stripOffsets[latIdx]) + int64(lonIdx)*2
	if _, err := f.Seek(offset, 0); err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to seek into SRTM tile", err)
	}

	var raw int16
	if err := binary.Read(f, t.order, &raw); err != nil {
		return nil, apperr.Wrap(apperr.External, "failed to read SRTM sample", err)
	}

	if int32(raw) == t.noData {
		return nil, nil
	}
	elev := model.NewElevation(int32(raw))
	return &elev, nil
}

func readHeader(f *os.File) (binary.ByteOrder, uint32, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return nil, 0, err
	}
	var magic uint16
	if err := binary.Read(f, binary.LittleEndian, &magic); err != nil {
		return nil, 0, err
	}
	var order binary.ByteOrder
	switch magic {
	case 0x4949:
		order = binary.LittleEndian
	case 0x4D4D:
		order = binary.BigEndian
	default:
		return nil, 0, apperr.New(apperr.External, "invalid SRTM byte-order marker")
	}

	var version uint16
	if err := binary.Read(f, order, &version); err != nil {
		return nil, 0, err
	}
	if version != 0x2A {
		return nil, 0, apperr.Newf(apperr.External, "invalid SRTM version 0x%X", version)
	}

	var ifdOffset uint32
	if err := binary.Read(f, order, &ifdOffset); err != nil {
		return nil, 0, err
	}
	return order, ifdOffset, nil
}

func readIfd(f *os.File, order binary.ByteOrder, offset uint32) (map[ifdTag]ifdEntry, error) {
	if _, err := f.Seek(int64(offset), 0); err != nil {
		return nil, err
	}
	var count uint16
	if err := binary.Read(f, order, &count); err != nil {
		return nil, err
	}

	entries := make(map[ifdTag]ifdEntry, count)
	for i := 0; i < int(count); i++ {
		var tag uint16
		if err := binary.Read(f, order, &tag); err != nil {
			return nil, err
		}
		var datatype uint16
		var dataCount, data uint32
		if err := binary.Read(f, order, &datatype); err != nil {
			return nil, err
		}
		if err := binary.Read(f, order, &dataCount); err != nil {
			return nil, err
		}
		if err := binary.Read(f, order, &data); err != nil {
			return nil, err
		}
		entries[ifdTag(tag)] = ifdEntry{datatype: datatype, count: dataCount, data: data}
	}

	var next uint32
	if err := binary.Read(f, order, &next); err != nil {
		return nil, err
	}
	if next != 0 {
		more, err := readIfd(f, order, next)
		if err != nil {
			return nil, err
		}
		for k, v := range more {
			entries[k] = v
		}
	}
	return entries, nil
}

func tagData(entries map[ifdTag]ifdEntry, tag ifdTag) (uint32, error) {
	entry, ok := entries[tag]
	if !ok {
		return 0, apperr.Newf(apperr.External, "SRTM tile missing tag 0x%X", tag)
	}
	return entry.data, nil
}

func readUint32Array(f *os.File, order binary.ByteOrder, entry ifdEntry) ([]uint32, error) {
	if _, err := f.Seek(int64(entry.data), 0); err != nil {
		return nil, err
	}
	out := make([]uint32, entry.count)
	for i := range out {
		if err := binary.Read(f, order, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readFloat64Array(f *os.File, order binary.ByteOrder, entry ifdEntry, n int) ([]float64, error) {
	if _, err := f.Seek(int64(entry.data), 0); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		var bits uint64
		if err := binary.Read(f, order, &bits); err != nil {
			return nil, err
		}
		out[i] = math.Float64frombits(bits)
	}
	return out, nil
}

func readNoDataValue(f *os.File, entry ifdEntry) (int32, error) {
	if _, err := f.Seek(int64(entry.data), 0); err != nil {
		return 0, err
	}
	buf := make([]byte, entry.count-1)
	if _, err := f.Read(buf); err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(buf), 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

// SrtmElevationApi implements usecase.ElevationApi over a set of opened
// SRTM tiles, each covering its own bounding box.
type SrtmElevationApi struct {
	tiles []*tile
}

// NewSrtmElevationApi opens every tile at paths. A tile failing to open
// fails the whole construction: a misconfigured dataset should surface at
// startup, not on the first request.
func NewSrtmElevationApi(paths []string) (*SrtmElevationApi, error) {
	tiles := make([]*tile, 0, len(paths))
	for _, p := range paths {
		t, err := openTile(p)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return &SrtmElevationApi{tiles: tiles}, nil
}

func (a *SrtmElevationApi) lookup(coord model.Coordinate) (*model.Elevation, error) {
	for _, t := range a.tiles {
		if t.contains(coord.Latitude(), coord.Longitude()) {
			return t.get(coord.Latitude(), coord.Longitude())
		}
	}
	return nil, nil
}

// AttachElevations fills in elevation for every point in sl that doesn't
// have one yet. Points outside every loaded tile are left without
// elevation rather than failing the request.
func (a *SrtmElevationApi) AttachElevations(ctx context.Context, sl *model.SegmentList) error {
	for i := 0; i < sl.Len(); i++ {
		seg := sl.At(i)
		points := seg.Points()
		for j := range points {
			if points[j].Elevation() != nil {
				continue
			}
			elev, err := a.lookup(points[j])
			if err != nil {
				return err
			}
			if elev == nil {
				continue
			}
			if err := points[j].SetElevation(*elev); err != nil {
				return err
			}
		}
	}
	return nil
}
