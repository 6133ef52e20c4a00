package codec

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.klb.dev/dataxfer/internal/binder"
	"go.klb.dev/dataxfer/internal/exchange"
	"go.klb.dev/dataxfer/internal/format"
	"go.klb.dev/dataxfer/internal/policy"
)

type address struct {
	Street string
	City   string
}

type customer struct {
	Name    string
	Age     int
	Home    address
	Tags    []string
	Balance float64
}

type invoice struct{ Number int }

type pair[K, V any] struct {
	Key   K
	Value V
}

func typed(f string) binder.Request {
	return binder.Request{Format: f, AutoConvert: true, Typed: true}
}

func TestMarkerLayout(t *testing.T) {
	want := []byte{0x96, 0xa7, 0x9e, 0xfd, 0x13, 0x3b, 0x70, 0x43, 0xa6, 0x79, 0x56, 0x10, 0x6b, 0xb2, 0x88, 0xfb}
	if !bytes.Equal(Marker[:], want) {
		t.Errorf("Marker = % x, want % x", Marker, want)
	}
}

func TestMarkerIntegrity(t *testing.T) {
	raw := [][]byte{
		nil,
		{},
		[]byte("hello world, definitely not serialized"),
		append(append([]byte{}, Marker[:15]...), 0x00),
		Marker[:8],
	}
	for _, data := range raw {
		if HasMarker(data) {
			t.Errorf("HasMarker(% x) = true", data)
		}
		c := New(policy.FullCompat(), nil)
		if _, _, err := c.Read(data, binder.Request{}, nil); !errors.Is(err, ErrNoMarker) {
			t.Errorf("Read(% x) err = %v, want ErrNoMarker", data, err)
		}
	}

	c := New(policy.Default(), nil)
	stream, err := c.Encode("hello", "custom")
	if err != nil {
		t.Fatal(err)
	}
	if !HasMarker(stream) {
		t.Fatal("encoded stream lacks marker")
	}
	got, ok, err := TryRead[string](c, stream, typed("custom"))
	if err != nil || !ok || got != "hello" {
		t.Errorf("TryRead = %q, %v, %v", got, ok, err)
	}
}

func TestSafeRoundTrip(t *testing.T) {
	c := New(policy.Default(), nil)
	when := time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC)
	values := []any{
		int32(42),
		"",
		"text",
		true,
		3.5,
		[]string{"a", "b"},
		[]byte{0, 1, 2},
		map[string]string{"k": "v"},
		when,
		exchange.Point{X: 1, Y: -2},
		exchange.Rectangle{X: 1, Y: 2, Width: 3, Height: 4},
		exchange.Color{A: 255, R: 1, G: 2, B: 3},
	}
	for _, v := range values {
		stream, err := c.Encode(v, "custom")
		if err != nil {
			t.Fatalf("Encode(%T): %v", v, err)
		}
		got, ok, err := c.Read(stream, binder.Request{Format: "custom"}, nil)
		if err != nil || !ok {
			t.Fatalf("Read(%T) = %v, %v", v, ok, err)
		}
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("round trip %T (-want +got):\n%s", v, diff)
		}
	}
}

func TestSafeTypeMismatchIsMiss(t *testing.T) {
	c := New(policy.Default(), nil)
	stream, err := c.Encode(int32(7), "custom")
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := TryRead[string](c, stream, typed("custom"))
	if err != nil || ok {
		t.Errorf("TryRead[string] = %q, %v, %v; want miss", got, ok, err)
	}
	p, ok, err := TryRead[*int32](c, stream, typed("custom"))
	if err != nil || !ok || *p != 7 {
		t.Errorf("TryRead[*int32] = %v, %v, %v", p, ok, err)
	}
}

func TestWriteGates(t *testing.T) {
	value := customer{Name: "Ada"}
	tests := []struct {
		name    string
		policy  policy.Policy
		format  string
		wantErr []error
	}{
		{"legacy off", policy.Default(), "custom", []error{ErrNotSupported}},
		{"only global gate", policy.Policy{LegacySerialization: true}, "custom", []error{ErrNotSupported}},
		{"only clipboard gate", policy.Policy{ClipboardLegacySerialization: true}, "custom", []error{ErrNotSupported}},
		{"both gates", policy.FullCompat(), "custom", nil},
		{"restricted format", policy.FullCompat(), format.Csv, []error{ErrNotSupported, ErrRestricted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.policy, binder.NewRegistry())
			var buf bytes.Buffer
			err := c.Write(&buf, value, tt.format)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Write: %v", err)
				}
				return
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("Write err = %v, want %v", err, want)
				}
			}
			if buf.Len() != 0 {
				t.Errorf("failed write left %d bytes", buf.Len())
			}
		})
	}
}

func TestWellKnownIgnoresGates(t *testing.T) {
	for _, f := range []string{"custom", format.Csv, format.Bitmap} {
		if err := CanWrite(f, "x", policy.Policy{}); err != nil {
			t.Errorf("CanWrite(%s, string) = %v", f, err)
		}
	}
}

func TestLegacyRoundTripTyped(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	want := customer{Name: "Ada", Age: 36, Home: address{Street: "1 Loop", City: "London"}, Tags: []string{"vip"}, Balance: 12.5}
	stream, err := c.Encode(want, "custom")
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := TryRead[customer](c, stream, typed("custom"))
	if err != nil || !ok {
		t.Fatalf("TryRead = %v, %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestLegacyRoundTripMultiParamGeneric(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	want := pair[string, int]{Key: "a", Value: 1}
	stream, err := c.Encode(want, "custom")
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := TryRead[pair[string, int]](c, stream, typed("custom"))
	if err != nil || !ok {
		t.Fatalf("TryRead = %v, %v", ok, err)
	}
	if got != want {
		t.Errorf("TryRead = %+v, want %+v", got, want)
	}
}

func TestLegacyReadGates(t *testing.T) {
	writer := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := writer.Encode(customer{Name: "Ada"}, "custom")
	if err != nil {
		t.Fatal(err)
	}

	reader := New(policy.Default(), binder.NewRegistry())
	if _, ok, err := TryRead[customer](reader, stream, typed("custom")); ok || !errors.Is(err, ErrNotSupported) {
		t.Errorf("TryRead with legacy off = %v, %v; want ErrNotSupported", ok, err)
	}
}

func TestLegacyRootMismatchFailsBeforeGates(t *testing.T) {
	writer := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := writer.Encode(customer{Name: "Ada"}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	// Even with legacy disabled, a mismatched root is a plain miss.
	reader := New(policy.Default(), binder.NewRegistry())
	if v, ok, err := TryRead[invoice](reader, stream, typed("custom")); ok || err != nil {
		t.Errorf("TryRead[invoice] = %v, %v, %v; want miss", v, ok, err)
	}
}

func TestLegacyResolverDeclinesAll(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := c.Encode(customer{Name: "Ada"}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	req := typed("custom")
	req.Resolver = func(binder.TypeName) (reflect.Type, error) { return nil, nil }
	_, ok, err := TryRead[customer](c, stream, req)
	if ok || !errors.Is(err, ErrBindingFailed) {
		t.Errorf("TryRead = %v, %v; want ErrBindingFailed", ok, err)
	}
}

func TestLegacyResolverBindsMembers(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := c.Encode(customer{Name: "Ada", Home: address{City: "Paris"}}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	var asked []string
	req := typed("custom")
	req.Resolver = func(n binder.TypeName) (reflect.Type, error) {
		asked = append(asked, n.FullName)
		switch n.FullName {
		case "codec.customer":
			return reflect.TypeFor[customer](), nil
		case "codec.address":
			return reflect.TypeFor[address](), nil
		}
		return nil, nil
	}
	got, ok, err := TryRead[customer](c, stream, req)
	if err != nil || !ok {
		t.Fatalf("TryRead = %v, %v", ok, err)
	}
	if got.Home.City != "Paris" {
		t.Errorf("Home.City = %q", got.Home.City)
	}
	if diff := cmp.Diff([]string{"codec.customer", "codec.address"}, asked); diff != "" {
		t.Errorf("resolver calls (-want +got):\n%s", diff)
	}
}

func TestLegacyResolverBindsUnrelatedType(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := c.Encode(customer{Name: "Ada"}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	req := typed("custom")
	req.Resolver = func(binder.TypeName) (reflect.Type, error) { return reflect.TypeFor[invoice](), nil }
	if _, ok, err := TryRead[customer](c, stream, req); ok || !errors.Is(err, ErrBindingFailed) {
		t.Errorf("TryRead = %v, %v; want ErrBindingFailed", ok, err)
	}
}

func TestLegacyRestrictedFormat(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := c.Encode(customer{Name: "Ada"}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := TryRead[customer](c, stream, typed(format.Dib)); ok || !errors.Is(err, ErrRestricted) {
		t.Errorf("TryRead under %s = %v, %v; want ErrRestricted", format.Dib, ok, err)
	}
}

func TestLegacyUntypedNeedsRegistration(t *testing.T) {
	reg := binder.NewRegistry()
	c := New(policy.FullCompat(), reg)
	stream, err := c.Encode(invoice{Number: 9}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Read(stream, binder.Request{Format: "custom"}, nil); !errors.Is(err, ErrBindingFailed) {
		t.Errorf("untyped read of unregistered type err = %v", err)
	}

	reg.Register(reflect.TypeFor[invoice]())
	v, ok, err := c.Read(stream, binder.Request{Format: "custom"}, nil)
	if err != nil || !ok {
		t.Fatalf("Read = %v, %v", ok, err)
	}
	if got, _ := v.(invoice); got.Number != 9 {
		t.Errorf("Read = %#v", v)
	}
}

func TestTypedInterfaceNeedsResolver(t *testing.T) {
	c := New(policy.FullCompat(), binder.NewRegistry())
	stream, err := c.Encode(invoice{Number: 1}, "custom")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := TryRead[any](c, stream, typed("custom")); ok || !errors.Is(err, ErrNotSupported) {
		t.Errorf("TryRead[any] = %v, %v; want ErrNotSupported", ok, err)
	}
}

func TestMalformedStream(t *testing.T) {
	c := New(policy.FullCompat(), nil)
	data := append(append([]byte{}, Marker[:]...), 0xff, 0x00)
	if _, _, err := c.Read(data, binder.Request{}, nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Read err = %v, want ErrMalformed", err)
	}
}
