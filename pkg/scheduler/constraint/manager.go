package constraint

import (
	"sync"

	"github.com/google/uuid"

	"github.com/paiban/staffplan/pkg/model"
)

// Filter 资格过滤器，按注册顺序检查全部规则
type Filter struct {
	rules []Rule
	mu    sync.RWMutex
}

// NewFilter 创建过滤器
func NewFilter(rules ...Rule) *Filter {
	f := &Filter{}
	for _, r := range rules {
		f.Register(r)
	}
	return f
}

// Register 注册规则，同类型规则会被替换
func (f *Filter) Register(r Rule) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.rules {
		if existing.Type() == r.Type() {
			f.rules[i] = r
			return
		}
	}
	f.rules = append(f.rules, r)
}

// Unregister 注销规则
func (f *Filter) Unregister(t Type) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, r := range f.rules {
		if r.Type() == t {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return
		}
	}
}

// Rules 返回已注册规则的副本
func (f *Filter) Rules() []Rule {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}

// Evaluate 检查单个候选人，规则之间相互独立，不会提前返回
func (f *Filter) Evaluate(ctx *Context, c *Candidate) Decision {
	d := Decision{Eligible: true}
	for _, r := range f.Rules() {
		if ok, reason := r.Check(ctx, c); !ok {
			d.Eligible = false
			d.Violations = append(d.Violations, Violation{Type: r.Type(), Name: r.Name(), Reason: reason})
		}
	}
	return d
}

// Eligible 过滤班次的候选员工，保持输入顺序
func (f *Filter) Eligible(ctx *Context, employees []*model.Employee, shift *model.Shift) ([]*model.Employee, map[uuid.UUID]Decision) {
	var eligible []*model.Employee
	rejected := make(map[uuid.UUID]Decision)
	for _, e := range employees {
		d := f.Evaluate(ctx, NewCandidate(e, shift))
		if d.Eligible {
			eligible = append(eligible, e)
			continue
		}
		rejected[e.ID] = d
	}
	return eligible, rejected
}
