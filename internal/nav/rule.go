package nav

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
)

// RuleEnv is the environment visibility and count rules are evaluated against.
type RuleEnv struct {
	Authenticated bool   `expr:"authenticated"`
	Admin         bool   `expr:"admin"`
	Role          string `expr:"role"`
	Username      string `expr:"username"`
	Categories    int    `expr:"categories"`
	Registration  string `expr:"registration"`
}

func NewRuleEnv(session Session, role Role, site Site) RuleEnv {
	return RuleEnv{
		Authenticated: session.Authenticated(),
		Admin:         session.Authenticated() && role.IsAdmin(),
		Role:          string(role),
		Username:      session.Username,
		Categories:    len(site.Categories),
		Registration:  string(site.AllowRegister),
	}
}

type rule struct {
	script  string
	program *vm.Program
}

func compileBoolRule(script string) (*rule, error) {
	program, err := expr.Compile(script, expr.Env(RuleEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &rule{script, program}, nil
}

func compileIntRule(script string) (*rule, error) {
	program, err := expr.Compile(script, expr.Env(RuleEnv{}), expr.AsInt())
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &rule{script, program}, nil
}

func (r *rule) Bool(env RuleEnv) (bool, error) {
	result, err := expr.Run(r.program, env)
	if err != nil {
		return false, errors.WithStack(err)
	}

	value, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("unexpected rule '%s' result type '%T', expected boolean", r.script, result)
	}

	return value, nil
}

func (r *rule) Int(env RuleEnv) (int, error) {
	result, err := expr.Run(r.program, env)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	value, ok := result.(int)
	if !ok {
		return 0, errors.Errorf("unexpected rule '%s' result type '%T', expected integer", r.script, result)
	}

	return value, nil
}

func (r *rule) String() string {
	return r.script
}
