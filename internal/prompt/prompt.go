// Package prompt defines how build participants ask the user yes/no
// questions.
package prompt

import "context"

// Question is a yes/no question shown to the user.
type Question struct {
	Title   string
	Message string
	Yes     string // label of the accepting answer
	No      string // label of the declining answer
}

// Confirmer answers questions, interactively or not.
type Confirmer interface {
	Confirm(ctx context.Context, q Question) (bool, error)
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, q Question) (bool, error)

func (f Func) Confirm(ctx context.Context, q Question) (bool, error) { return f(ctx, q) }

// Fixed returns a Confirmer that always gives answer without asking. It is
// the provider used when no terminal is attached.
func Fixed(answer bool) Confirmer {
	return Func(func(context.Context, Question) (bool, error) { return answer, nil })
}

// Recorder wraps a Confirmer and keeps every question asked.
type Recorder struct {
	Next  Confirmer
	Asked []Question
}

func (r *Recorder) Confirm(ctx context.Context, q Question) (bool, error) {
	r.Asked = append(r.Asked, q)
	if r.Next == nil {
		return false, nil
	}
	return r.Next.Confirm(ctx, q)
}
