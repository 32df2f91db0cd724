package codegen

import (
	"fmt"
	"go/types"
	"maps"
	"net/http"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/internal/logger"
	"github.com/brizzai/reqbuilder/requester"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"
)

// Load type-checks the package in dir and collects every struct carrying a
// request container tag. skipFile names a previously generated file whose
// compile errors are ignored, since it is about to be replaced.
func Load(dir, skipFile string) (*File, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedTypes |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypesInfo,
		Dir: dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("expected one package in %s, found %d", dir, len(pkgs))
	}
	pkg := pkgs[0]
	for _, e := range pkg.Errors {
		if skipFile != "" && filepath.Base(positionFile(e.Pos)) == skipFile {
			logger.Debug("ignoring error in generated file", zap.String("error", e.Msg))
			continue
		}
		return nil, fmt.Errorf("package errors: %v", e)
	}
	if pkg.Types == nil {
		return nil, fmt.Errorf("no type information for %s", dir)
	}
	return collect(pkg.Types)
}

// positionFile strips ":line:col" from a packages.Error position.
func positionFile(pos string) string {
	for i := 0; i < 2; i++ {
		idx := strings.LastIndexByte(pos, ':')
		if idx < 0 {
			break
		}
		pos = pos[:idx]
	}
	return pos
}

// collect walks the package scope in name order so output is deterministic.
func collect(pkg *types.Package) (*File, error) {
	file := &File{
		Package: pkg.Name(),
		Imports: map[string]string{},
	}
	var used map[string]string
	qualifier := func(other *types.Package) string {
		if other == pkg {
			return ""
		}
		used[other.Path()] = other.Name()
		return other.Name()
	}

	scope := pkg.Scope()
	names := scope.Names()
	sort.Strings(names)
	for _, name := range names {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		if named, ok := tn.Type().(*types.Named); ok && named.TypeParams().Len() > 0 {
			continue
		}
		st, ok := tn.Type().Underlying().(*types.Struct)
		if !ok {
			continue
		}
		used = map[string]string{}
		req, found, err := requestFromStruct(name, st, qualifier)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		// Only json and form requests emit a body record naming field types.
		if req.Body == requester.BodyJSON || req.Body == requester.BodyForm {
			maps.Copy(file.Imports, used)
		}
		file.Requests = append(file.Requests, req)
	}
	return file, nil
}

func requestFromStruct(name string, st *types.Struct, qualifier types.Qualifier) (Request, bool, error) {
	var (
		req       = Request{TypeName: name}
		found     bool
		headerSet = map[string]string{}
	)
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))

		if v.Name() == "_" {
			raw, ok := tag.Lookup(derive.ContainerTag)
			if !ok {
				continue
			}
			if found {
				return Request{}, false, fmt.Errorf("%s: more than one %q tag: %w", name, derive.ContainerTag, derive.ErrInvalidDefinition)
			}
			attrs, err := derive.ParseRequestTag(raw)
			if err != nil {
				return Request{}, false, fmt.Errorf("%s: %w", name, err)
			}
			req.Method, req.Path, req.Body = attrs.Method, attrs.Path, attrs.Body
			found = true
			continue
		}

		raw, tagged := tag.Lookup(derive.FieldTag)
		if !v.Exported() {
			if tagged {
				return Request{}, false, fmt.Errorf("%s.%s: unexported fields cannot carry a %q tag: %w", name, v.Name(), derive.FieldTag, derive.ErrInvalidDefinition)
			}
			continue
		}
		fa, err := derive.ParseFieldTag(raw)
		if err != nil {
			return Request{}, false, fmt.Errorf("%s.%s: %w", name, v.Name(), err)
		}
		if fa.Role == derive.RoleSkip {
			continue
		}
		if v.Embedded() {
			return Request{}, false, fmt.Errorf("%s.%s: embedded fields are not supported: %w", name, v.Name(), derive.ErrInvalidDefinition)
		}

		_, isPtr := v.Type().(*types.Pointer)
		field := Field{
			GoName:   v.Name(),
			Role:     fa.Role,
			Key:      derive.KeyName(v.Name(), tag.Get("json"), fa),
			Tag:      string(tag),
			Optional: isPtr,
		}

		switch fa.Role {
		case derive.RolePath, derive.RoleHeader:
			if !isScalar(v.Type()) {
				return Request{}, false, fmt.Errorf("%s.%s: %s of type %s is not a scalar: %w", name, v.Name(), fa.Role, v.Type(), derive.ErrInvalidDefinition)
			}
			if fa.Role == derive.RoleHeader {
				canonical := http.CanonicalHeaderKey(field.Key)
				if other, dup := headerSet[canonical]; dup {
					return Request{}, false, fmt.Errorf("%s.%s: header %q is also set by %s: %w", name, v.Name(), field.Key, other, derive.ErrInvalidDefinition)
				}
				headerSet[canonical] = v.Name()
			}
		case derive.RoleQuery:
			if !isScalar(v.Type()) && !isScalarList(v.Type()) {
				return Request{}, false, fmt.Errorf("%s.%s: query parameter of type %s is not a scalar or list of scalars: %w", name, v.Name(), v.Type(), derive.ErrInvalidDefinition)
			}
		case derive.RoleBody:
			if _, skipped := derive.JSONName(v.Name(), tag.Get("json")); skipped {
				continue
			}
			field.TypeExpr = types.TypeString(v.Type(), qualifier)
		}
		req.Fields = append(req.Fields, field)
	}

	if !found {
		return Request{}, false, nil
	}
	if err := req.Validate(); err != nil {
		return Request{}, false, fmt.Errorf("%s: %w", name, err)
	}
	return req, true, nil
}

func isScalar(t types.Type) bool {
	if hasMethod(t, "MarshalText") || hasMethod(t, "String") {
		return true
	}
	if p, ok := t.(*types.Pointer); ok {
		return isScalar(p.Elem())
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return u.Info()&(types.IsString|types.IsBoolean|types.IsInteger|types.IsFloat) != 0
	case *types.Slice:
		b, ok := u.Elem().Underlying().(*types.Basic)
		return ok && b.Kind() == types.Byte
	}
	return false
}

func isScalarList(t types.Type) bool {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	switch u := t.Underlying().(type) {
	case *types.Slice:
		return isScalar(u.Elem())
	case *types.Array:
		return isScalar(u.Elem())
	}
	return false
}

func hasMethod(t types.Type, name string) bool {
	obj, _, _ := types.LookupFieldOrMethod(t, true, nil, name)
	_, ok := obj.(*types.Func)
	return ok
}
