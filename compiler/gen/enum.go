package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"
)

const enumPkg = "github.com/syssam/pgcomposite/enum"

// render builds the file for one enum.
func (g *EnumGenerator) render(t enumTask) *jen.File {
	f := jen.NewFile(g.pkg)
	if g.header != "" {
		f.HeaderComment(g.header)
	}
	name := t.goName
	consts := make([]string, len(t.labels))
	for i, l := range t.labels {
		consts[i] = name + l
	}
	methods := labelMethods(t.labels)

	f.Commentf("%s is the %s enum type. Labels are ordered by declaration, not lexically.", name, t.spec.Name)
	f.Type().Id(name).String()

	f.Const().DefsFunc(func(defs *jen.Group) {
		for i, l := range t.spec.Labels {
			defs.Id(consts[i]).Id(name).Op("=").Lit(l)
		}
	})

	f.Commentf("%sType is the runtime enum type bound to the generated labels.", name)
	f.Var().Id(name+"Type").Op("=").Qual(enumPkg, "Define").Call(
		jen.Lit(t.spec.Name),
		jen.Qual(enumPkg, "WithLabels").CallFunc(func(args *jen.Group) {
			for _, l := range t.spec.Labels {
				args.Lit(l)
			}
		}),
	)

	f.Commentf("%sValues returns all valid values for %s in declaration order.", name, name)
	f.Func().Id(name + "Values").Params().Index().Id(name).Block(
		jen.Return(jen.Index().Id(name).ValuesFunc(func(vals *jen.Group) {
			for _, c := range consts {
				vals.Id(c)
			}
		})),
	)

	f.Func().Params(jen.Id("e").Id(name)).Id("String").Params().String().Block(
		jen.Return(jen.String().Call(jen.Id("e"))),
	)

	f.Func().Params(jen.Id("e").Id(name)).Id("IsValid").Params().Bool().Block(
		jen.Return(jen.Id("e").Dot("Index").Call().Op(">=").Lit(0)),
	)

	f.Comment("Index returns the position of e in the label list, or -1 if e is not a label.")
	f.Func().Params(jen.Id("e").Id(name)).Id("Index").Params().Int().Block(
		jen.Switch(jen.Id("e")).BlockFunc(func(sw *jen.Group) {
			for i, c := range consts {
				sw.Case(jen.Id(c)).Block(jen.Return(jen.Lit(i)))
			}
		}),
		jen.Return(jen.Lit(-1)),
	)

	f.Comment("Compare orders e and o by declaration. Invalid values sort first.")
	f.Func().Params(jen.Id("e").Id(name)).Id("Compare").Params(jen.Id("o").Id(name)).Int().Block(
		jen.Return(jen.Qual("cmp", "Compare").Call(
			jen.Id("e").Dot("Index").Call(),
			jen.Id("o").Dot("Index").Call(),
		)),
	)

	for i, method := range methods {
		f.Commentf("%s reports whether e is %q.", method, t.spec.Labels[i])
		f.Func().Params(jen.Id("e").Id(name)).Id(method).Params().Bool().Block(
			jen.Return(jen.Id("e").Op("==").Id(consts[i])),
		)
	}

	f.Comment("Enum returns e as a runtime enum value.")
	f.Func().Params(jen.Id("e").Id(name)).Id("Enum").Params().Params(
		jen.Op("*").Qual(enumPkg, "Value"),
		jen.Error(),
	).Block(
		jen.Return(jen.Id(name + "Type").Dot("Of").Call(jen.String().Call(jen.Id("e")))),
	)

	// Scan and Value implement sql.Scanner and driver.Valuer.
	f.Func().Params(jen.Id("e").Op("*").Id(name)).Id("Scan").Params(jen.Id("value").Any()).Error().Block(
		jen.Var().Id("v").Id(name),
		jen.Switch(jen.Id("x").Op(":=").Id("value").Assert(jen.Type())).Block(
			jen.Case(jen.String()).Block(jen.Id("v").Op("=").Id(name).Call(jen.Id("x"))),
			jen.Case(jen.Index().Byte()).Block(jen.Id("v").Op("=").Id(name).Call(jen.Id("x"))),
			jen.Default().Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("invalid type %T for enum "+name), jen.Id("value"))),
			),
		),
		jen.If(jen.Op("!").Id("v").Dot("IsValid").Call()).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(fmt.Sprintf("%%q is not valid for enum %s", t.spec.Name)), jen.Id("v"))),
		),
		jen.Op("*").Id("e").Op("=").Id("v"),
		jen.Return(jen.Nil()),
	)

	f.Func().Params(jen.Id("e").Id(name)).Id("Value").Params().Params(
		jen.Qual("database/sql/driver", "Value"),
		jen.Error(),
	).Block(
		jen.Return(jen.String().Call(jen.Id("e")), jen.Nil()),
	)

	f.Comment("MarshalGQL implements graphql.Marshaler interface.")
	f.Func().Params(jen.Id("e").Id(name)).Id("MarshalGQL").Params(
		jen.Id("w").Qual("io", "Writer"),
	).Block(
		jen.Qual("io", "WriteString").Call(
			jen.Id("w"),
			jen.Qual("strconv", "Quote").Call(
				jen.Qual("strings", "ToUpper").Call(jen.Id("e").Dot("String").Call()),
			),
		),
	)

	f.Comment("UnmarshalGQL implements graphql.Unmarshaler interface.")
	f.Func().Params(jen.Id("e").Op("*").Id(name)).Id("UnmarshalGQL").Params(
		jen.Id("val").Any(),
	).Error().Block(
		jen.List(jen.Id("str"), jen.Id("ok")).Op(":=").Id("val").Assert(jen.String()),
		jen.If(jen.Op("!").Id("ok")).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("enum %T must be a string"), jen.Id("val"))),
		),
		jen.For(jen.List(jen.Id("_"), jen.Id("v")).Op(":=").Range().Id(name+"Values").Call()).Block(
			jen.If(jen.Qual("strings", "EqualFold").Call(jen.String().Call(jen.Id("v")), jen.Id("str"))).Block(
				jen.Op("*").Id("e").Op("=").Id("v"),
				jen.Return(jen.Nil()),
			),
		),
		jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("%s is not a valid "+name), jen.Id("str"))),
	)
	return f
}
