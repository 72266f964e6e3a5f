package hostconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// createCtyFunctionFromGoFunc wraps a go function taking and returning
// strings or ints so it can be called from the config file
func createCtyFunctionFromGoFunc(f interface{}) (function.Function, error) {
	rf := reflect.TypeOf(f)
	if rf == nil || rf.Kind() != reflect.Func {
		return function.Function{}, fmt.Errorf("%T is not a function", f)
	}

	if rf.NumOut() != 1 {
		return function.Function{}, fmt.Errorf("functions must return a single value, got %d", rf.NumOut())
	}

	params := []function.Parameter{}

	for i := 0; i < rf.NumIn(); i++ {
		fp := rf.In(i)

		switch fp.Kind() {
		case reflect.String:
			params = append(params, function.Parameter{
				Name:             fp.Name(),
				Type:             cty.String,
				AllowDynamicType: true,
			})
		case reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			params = append(params, function.Parameter{
				Name:             fp.Name(),
				Type:             cty.Number,
				AllowDynamicType: true,
			})
		default:
			return function.Function{}, fmt.Errorf("type %v is not a valid cty type, only primitive types like string and basic numbers are supported", fp.Kind())
		}
	}

	var outType function.TypeFunc
	switch rf.Out(0).Kind() {
	case reflect.String:
		outType = function.StaticReturnType(cty.String)
	case reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		outType = function.StaticReturnType(cty.Number)
	default:
		return function.Function{}, fmt.Errorf("type %v is not a valid cty type, only primitive types like string and basic numbers are supported", rf.Out(0).Kind())
	}

	return function.New(&function.Spec{
		Params: params,
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			in := []reflect.Value{}
			for i, a := range args {
				switch a.Type() {
				case cty.String:
					in = append(in, reflect.ValueOf(a.AsString()))
				case cty.Number:
					bf := a.AsBigFloat()
					val, _ := bf.Int64()
					in = append(in, reflect.ValueOf(val).Convert(rf.In(i)))
				}
			}

			out := reflect.ValueOf(f).Call(in)

			switch retType {
			case cty.Number:
				return cty.NumberIntVal(out[0].Int()), nil
			case cty.String:
				return cty.StringVal(out[0].String()), nil
			}

			return cty.NullVal(retType), nil
		},
		Type: outType,
	}), nil
}

// getDefaultFunctions returns the functions available in every config file,
// filePath is the file being decoded and is used by dir()
func getDefaultFunctions(filePath string) map[string]function.Function {
	var EnvFunc = function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:             "env",
				Type:             cty.String,
				AllowDynamicType: true,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(os.Getenv(args[0].AsString())), nil
		},
	})

	var HomeFunc = function.New(&function.Spec{
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			h, _ := os.UserHomeDir()
			return cty.StringVal(h), nil
		},
	})

	var DirFunc = function.New(&function.Spec{
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			s, err := filepath.Abs(filePath)

			return cty.StringVal(filepath.Dir(s)), err
		},
	})

	funcs := map[string]function.Function{
		"abs":        stdlib.AbsoluteFunc,
		"chomp":      stdlib.ChompFunc,
		"coalesce":   stdlib.CoalesceFunc,
		"compact":    stdlib.CompactFunc,
		"concat":     stdlib.ConcatFunc,
		"contains":   stdlib.ContainsFunc,
		"dir":        DirFunc,
		"distinct":   stdlib.DistinctFunc,
		"element":    stdlib.ElementFunc,
		"env":        EnvFunc,
		"flatten":    stdlib.FlattenFunc,
		"format":     stdlib.FormatFunc,
		"formatlist": stdlib.FormatListFunc,
		"home":       HomeFunc,
		"join":       stdlib.JoinFunc,
		"keys":       stdlib.KeysFunc,
		"len":        stdlib.LengthFunc,
		"lower":      stdlib.LowerFunc,
		"max":        stdlib.MaxFunc,
		"merge":      stdlib.MergeFunc,
		"min":        stdlib.MinFunc,
		"parseint":   stdlib.ParseIntFunc,
		"regex":      stdlib.RegexFunc,
		"replace":    stdlib.ReplaceFunc,
		"reverse":    stdlib.ReverseListFunc,
		"slice":      stdlib.SliceFunc,
		"sort":       stdlib.SortFunc,
		"split":      stdlib.SplitFunc,
		"substr":     stdlib.SubstrFunc,
		"title":      stdlib.TitleFunc,
		"trim":       stdlib.TrimFunc,
		"trimprefix": stdlib.TrimPrefixFunc,
		"trimspace":  stdlib.TrimSpaceFunc,
		"trimsuffix": stdlib.TrimSuffixFunc,
		"upper":      stdlib.UpperFunc,
		"values":     stdlib.ValuesFunc,
	}

	return funcs
}
