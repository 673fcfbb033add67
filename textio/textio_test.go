package textio

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/quillaja/nbody2d/physics"
)

const planets = `5
2.50e+11
1.4960e+11 0.0000e+00 0.0000e+00 2.9800e+04 5.9740e+24 earth.gif
2.2790e+11 0.0000e+00 0.0000e+00 2.4100e+04 6.4190e+23 mars.gif
5.7900e+10 0.0000e+00 0.0000e+00 4.7900e+04 3.3020e+23 mercury.gif
0.0000e+00 0.0000e+00 0.0000e+00 0.0000e+00 1.9890e+30 sun.gif
1.0820e+11 0.0000e+00 0.0000e+00 3.5000e+04 4.8690e+24 venus.gif
`

func TestReadPlanets(t *testing.T) {
	in, err := Read(strings.NewReader(planets))
	if err != nil {
		t.Fatal(err)
	}
	if in.N != 5 || len(in.Bodies) != 5 || in.Radius != 2.5e11 {
		t.Fatalf("got N=%d len=%d R=%g", in.N, len(in.Bodies), in.Radius)
	}
	earth := in.Bodies[0]
	want := physics.Body{Label: "earth.gif", Pos: mgl64.Vec2{1.496e11, 0}, Vel: mgl64.Vec2{0, 2.98e4}, Mass: 5.974e24}
	if earth != want {
		t.Errorf("earth = %v, want %v", earth, want)
	}
	if in.Bodies[3].Label != "sun.gif" || in.Bodies[3].Mass != 1.989e30 {
		t.Errorf("sun = %v", in.Bodies[3])
	}
}

func TestReadIgnoresLayoutAndTrailingTokens(t *testing.T) {
	src := "1 1e3\n\t1 2\n3 4 5 probe   extra tokens 1 2 3"
	in, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	b := in.Bodies[0]
	if b.Pos != (mgl64.Vec2{1, 2}) || b.Vel != (mgl64.Vec2{3, 4}) || b.Mass != 5 || b.Label != "probe" {
		t.Errorf("body = %v", b)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		token int
		field string
		cause error
	}{
		{"empty", "", 1, "body count", io.ErrUnexpectedEOF},
		{"fractional count", "1.5 2", 1, "body count", strconv.ErrSyntax},
		{"negative count", "-1 2", 1, "body count", nil},
		{"bad radius", "1 abc", 2, "radius", strconv.ErrSyntax},
		{"missing radius", "1", 2, "radius", io.ErrUnexpectedEOF},
		{"bad velocity", "1 2.5e11 1 2 x 4 5 a", 5, "body 0 x velocity", strconv.ErrSyntax},
		{"short body list", "2 2.5e11 1 2 3 4 5 a", 9, "body 1 x position", io.ErrUnexpectedEOF},
		{"missing label", "1 2.5e11 1 2 3 4 5", 8, "body 0 label", io.ErrUnexpectedEOF},
		{"out of range", "1 2 1e999 0 0 0 1 a", 3, "body 0 x position", strconv.ErrRange},
		{"huge count", "9223372036854775807 1.0", 3, "body 0 x position", io.ErrUnexpectedEOF},
		{"large count", "100000000 1.0 1 2 3 4 5 a", 9, "body 1 x position", io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("got %v, want *ParseError", err)
			}
			if pe.Token != tt.token || pe.Field != tt.field {
				t.Errorf("token %d (%s), want %d (%s)", pe.Token, pe.Field, tt.token, tt.field)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("cause %v, want %v", pe.Err, tt.cause)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	u := physics.Universe{
		Radius: 2.5e11,
		Bodies: []physics.Body{
			{Label: "earth.gif", Pos: mgl64.Vec2{1.496e11, 0}, Vel: mgl64.Vec2{0, 2.98e4}, Mass: 5.974e24},
			{Label: "sun.gif", Pos: mgl64.Vec2{-1, 0}, Mass: 1.989e30},
		},
	}
	want := "2\n" +
		"2.50e+11\n" +
		" 1.4960e+11  0.0000e+00  0.0000e+00  2.9800e+04  5.9740e+24    earth.gif\n" +
		"-1.0000e+00  0.0000e+00  0.0000e+00  0.0000e+00  1.9890e+30      sun.gif\n"

	var buf bytes.Buffer
	if err := Write(&buf, u); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteReadKeepsFieldOrder(t *testing.T) {
	in, err := Read(strings.NewReader(planets))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, physics.Universe{Radius: in.Radius, Bodies: in.Bodies}); err != nil {
		t.Fatal(err)
	}
	again, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := range in.Bodies {
		if in.Bodies[i] != again.Bodies[i] {
			t.Errorf("body %d: %v != %v", i, again.Bodies[i], in.Bodies[i])
		}
	}
}
