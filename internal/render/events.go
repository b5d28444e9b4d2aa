package render

import "github.com/pagefold/readercore/internal/reader"

// Event subscriptions (the reader.Events contract). Each registration
// returns an unsubscribe func; sessions call them on teardown.

func (b *Book) OnSelected(fn func(r reader.Range, text string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSubID
	b.nextSubID++
	b.selectedFns[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.selectedFns, id)
	}
}

func (b *Book) OnRendered(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSubID
	b.nextSubID++
	b.renderedFns[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.renderedFns, id)
	}
}

func (b *Book) OnRelocated(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSubID
	b.nextSubID++
	b.relocatedFns[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.relocatedFns, id)
	}
}
