// Package linter анализатор exitcheck: процесс может завершать только main.main.
//
// Сообщается о вызовах встроенного panic, log.Fatal*, os.Exit и методов
// Fatal* у *zap.Logger и *zap.SugaredLogger вне функции main пакета main.
// Цикл отправки и датчики возвращают ошибки, а решение о выходе принимает main.
package linter

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

const zapPath = "go.uber.org/zap"

var Analyzer = &analysis.Analyzer{
	Name: "exitcheck",
	Doc:  "reports panic, log.Fatal*, os.Exit and zap Fatal* calls outside main.main",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		pkgName := file.Name.Name
		for _, decl := range file.Decls {
			allowed := false
			if fDecl, ok := decl.(*ast.FuncDecl); ok {
				allowed = pkgName == "main" && fDecl.Recv == nil && fDecl.Name.Name == "main"
			}
			if allowed {
				continue
			}
			ast.Inspect(decl, func(node ast.Node) bool {
				if call, ok := node.(*ast.CallExpr); ok {
					checkCall(pass, call)
				}
				return true
			})
		}
	}
	return nil, nil
}

func checkCall(pass *analysis.Pass, call *ast.CallExpr) {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		// Только встроенный panic, а не одноимённая функция пакета.
		if obj, ok := pass.TypesInfo.Uses[fun].(*types.Builtin); ok && obj.Name() == "panic" {
			pass.Reportf(fun.Pos(), "use of builtin panic outside main.main")
		}
	case *ast.SelectorExpr:
		if name, ok := terminatingCall(pass, fun); ok {
			pass.Reportf(fun.Sel.Pos(), "call to %s outside main.main", name)
		}
	}
}

// terminatingCall определяет, завершает ли вызов процесс, и возвращает его имя для сообщения.
func terminatingCall(pass *analysis.Pass, sel *ast.SelectorExpr) (string, bool) {
	method := sel.Sel.Name

	if ident, ok := sel.X.(*ast.Ident); ok {
		if pkg, ok := pass.TypesInfo.Uses[ident].(*types.PkgName); ok {
			switch path := pkg.Imported().Path(); {
			case path == "log" && strings.HasPrefix(method, "Fatal"):
				return "log." + method, true
			case path == "os" && method == "Exit":
				return "os.Exit", true
			}
			return "", false
		}
	}

	selection, ok := pass.TypesInfo.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal || !strings.HasPrefix(method, "Fatal") {
		return "", false
	}
	recv := selection.Recv()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok || named.Obj().Pkg() == nil || named.Obj().Pkg().Path() != zapPath {
		return "", false
	}
	return "zap." + named.Obj().Name() + "." + method, true
}
