// Package notifier reports controller decisions to the operator.
package notifier

type Notifier interface {
	Notify(message string)
}

type Notifiers []Notifier

func (n Notifiers) Notify(message string) {
	for _, notifier := range n {
		notifier.Notify(message)
	}
}
