package hcl

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	ctyValueType = reflect.TypeOf(cty.Value{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// decode populates the value goVal points to from val, recursing through
// structs, maps and slices.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	goPtr := reflect.ValueOf(goVal).Elem()
	goType := goPtr.Type()
	logger := ctxlog.FromContext(ctx).With("go_type", goType.String())

	if goType == ctyValueType {
		logger.Debug("Target is cty.Value, performing direct assignment.")
		goPtr.Set(reflect.ValueOf(val))
		return nil
	}
	if !val.IsWhollyKnown() {
		return fmt.Errorf("value is not known")
	}
	if val.IsNull() {
		logger.Debug("Skipping decode for null value.")
		return nil
	}

	if goType == durationType {
		var raw string
		if err := gocty.FromCtyValue(val, &raw); err != nil {
			return fmt.Errorf("expected a duration string: %w", err)
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		goPtr.SetInt(int64(d))
		return nil
	}

	switch goType.Kind() {
	case reflect.Interface:
		native, err := ctyToNative(val)
		if err != nil {
			return err
		}
		if native != nil {
			goPtr.Set(reflect.ValueOf(native))
		}
		return nil

	case reflect.Struct:
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return fmt.Errorf("type mismatch: cannot decode %s into Go struct %s", val.Type().FriendlyName(), goType)
		}
		attrs := val.AsValueMap()
		for _, f := range config.ArgumentFields(goType) {
			attr, ok := attrs[f.Name]
			if !ok {
				if f.Required {
					return fmt.Errorf("missing required attribute %q", f.Name)
				}
				continue
			}
			if err := c.decode(ctx, attr, goPtr.Field(f.Index).Addr().Interface()); err != nil {
				return fmt.Errorf("in attribute %q: %w", f.Name, err)
			}
		}
		return nil

	case reflect.Map:
		if goType.Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", goType.Key())
		}
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return fmt.Errorf("type mismatch: cannot decode %s into Go map %s", val.Type().FriendlyName(), goType)
		}
		m := reflect.MakeMap(goType)
		for it := val.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			ptr := reflect.New(goType.Elem())
			if err := c.decode(ctx, elem, ptr.Interface()); err != nil {
				return fmt.Errorf("in map element %q: %w", k.AsString(), err)
			}
			m.SetMapIndex(reflect.ValueOf(k.AsString()).Convert(goType.Key()), ptr.Elem())
		}
		goPtr.Set(m)
		return nil

	case reflect.Slice:
		ty := val.Type()
		if !ty.IsListType() && !ty.IsTupleType() && !ty.IsSetType() {
			return fmt.Errorf("type mismatch: cannot decode %s into Go slice %s", ty.FriendlyName(), goType)
		}
		s := reflect.MakeSlice(goType, val.LengthInt(), val.LengthInt())
		i := 0
		for it := val.ElementIterator(); it.Next(); i++ {
			_, elem := it.Element()
			if err := c.decode(ctx, elem, s.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("in slice element %d: %w", i, err)
			}
		}
		goPtr.Set(s)
		return nil

	default:
		want, err := gocty.ImpliedType(reflect.Zero(goType).Interface())
		if err != nil {
			return fmt.Errorf("unsupported Go type %s: %w", goType, err)
		}
		converted, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
		}
		return gocty.FromCtyValue(converted, goVal)
	}
}
