package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
)

// Fingerprint hashes every parameter that influences a march.
// Two scenes with equal fingerprints produce identical frames.
func (s *Scene) Fingerprint() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	putFloat := func(f float64) { buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f)) }
	putVec := func(v core.Vec2) { putFloat(v.X); putFloat(v.Y) }
	flush := func() { _, _ = d.Write(buf); buf = buf[:0] }

	for _, e := range s.Emitters {
		buf = append(buf, 'e')
		putVec(e.Position)
		putVec(e.Direction)
		putFloat(e.Width)
		putFloat(e.AngleSpread)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(int64(e.RayCount)))
		flush()
	}

	for _, o := range s.Objects {
		switch hb := o.Hitbox.(type) {
		case *geometry.Circle:
			buf = append(buf, 'c')
			putVec(hb.Center)
			putFloat(hb.Radius)
		case *geometry.LineSegment:
			buf = append(buf, 'l')
			putVec(hb.Center)
			putVec(hb.Direction)
			putFloat(hb.Length)
		default:
			// Unknown hitboxes hash by type name only
			buf = append(buf, 'u')
			buf = append(buf, []byte(typeName(hb))...)
		}
		buf = append(buf, []byte(typeName(o.Interaction))...)
		flush()
	}

	return d.Sum64()
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
