// Package transform provides the pinhole camera model: intrinsics handling and
// the pixel <-> camera-frame conversions used by the projective engine.
package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/patchvo/patchvo/spatialmath"
	putils "github.com/patchvo/patchvo/utils"
)

// MinDepth is the minimum camera-frame depth (Z) for a point to count as
// valid. Points at or below it still project to a bounded pixel, but are
// masked out rather than raising; see Project and ProjectionJacobian.
const MinDepth = 0.2

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to project between a
// 3D scene and the 2D image plane of one camera.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
// Callers validate once when intrinsics are loaded; the projection routines do
// not re-validate per call.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

// PixelToRay returns the unit-norm ray direction through a pixel.
func (params *PinholeCameraIntrinsics) PixelToRay(x, y float64) r3.Vector {
	return r3.Vector{
		X: (x - params.Ppx) / params.Fx,
		Y: (y - params.Ppy) / params.Fy,
		Z: 1,
	}.Normalize()
}

// BackProject lifts a pixel with an inverse depth value to a homogeneous
// camera-frame point (xn, yn, 1, d).
func (params *PinholeCameraIntrinsics) BackProject(x, y, invDepth float64) spatialmath.HomogeneousPoint {
	return spatialmath.HomogeneousPoint{
		X: (x - params.Ppx) / params.Fx,
		Y: (y - params.Ppy) / params.Fy,
		Z: 1,
		W: invDepth,
	}
}

// Project maps a homogeneous camera-frame point to a pixel. Z is clamped below
// at MinDepth/2 so points near (or behind) the camera yield a bounded pixel
// instead of dividing by zero; such points carry validity false from the
// transform engine.
func (params *PinholeCameraIntrinsics) Project(pt spatialmath.HomogeneousPoint) r2.Point {
	p, _ := params.ProjectWithDepth(pt)
	return p
}

// ProjectWithDepth is Project, also returning the (clamped) inverse depth of
// the point.
func (params *PinholeCameraIntrinsics) ProjectWithDepth(pt spatialmath.HomogeneousPoint) (r2.Point, float64) {
	d := 1.0 / putils.ClampMin(pt.Z, 0.5*MinDepth)
	return r2.Point{
		X: params.Fx*(d*pt.X) + params.Ppx,
		Y: params.Fy*(d*pt.Y) + params.Ppy,
	}, d
}

// ProjectDense maps a homogeneous point to a pixel on the dense (full depth
// map) path. Z below MinDepth/2 is substituted with 1.0 before inversion and
// the point reported invalid, preferring a bounded wrong value plus an
// explicit flag over propagating Inf through a supervision target.
func (params *PinholeCameraIntrinsics) ProjectDense(pt spatialmath.HomogeneousPoint) (r2.Point, bool) {
	z := pt.Z
	valid := true
	if z < 0.5*MinDepth {
		z = 1.0
		valid = false
	}
	d := 1.0 / z
	return r2.Point{
		X: params.Fx*(d*pt.X) + params.Ppx,
		Y: params.Fy*(d*pt.Y) + params.Ppy,
	}, valid
}

// ProjectionJacobian returns the 2x4 derivative of the projected pixel with
// respect to the homogeneous point, evaluated at pt. Where |Z| <= MinDepth the
// derivative is defined as zero (a flat region); the corresponding point is
// already masked invalid so the flat gradient never steers an update.
func (params *PinholeCameraIntrinsics) ProjectionJacobian(pt spatialmath.HomogeneousPoint) *mat.Dense {
	d := 0.0
	if math.Abs(pt.Z) > MinDepth {
		d = 1.0 / pt.Z
	}
	return mat.NewDense(2, 4, []float64{
		params.Fx * d, 0, -params.Fx * pt.X * d * d, 0,
		0, params.Fy * d, -params.Fy * pt.Y * d * d, 0,
	})
}

// PixelToPoint transforms a pixel with depth to a 3D camera-frame point.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// PointToPixel projects a 3D camera-frame point to a (subpixel) image plane
// coordinate.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z != 0. {
		return (x/z)*params.Fx + params.Ppx, (y/z)*params.Fy + params.Ppy
	}
	// a zero-depth point has no projection; return negative coordinates so
	// bounds filtering drops it
	return -1.0, -1.0
}
