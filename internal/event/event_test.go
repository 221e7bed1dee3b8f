package event

import (
	"reflect"
	"sync"
	"testing"
)

func TestList_EmitInRegistrationOrder(t *testing.T) {
	var l List[int]
	var got []string

	l.Add(func(v int) { got = append(got, "first") })
	l.Add(func(v int) { got = append(got, "second") })
	l.Add(func(v int) { got = append(got, "third") })

	l.Emit(1)

	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emit() order = %v, want %v", got, want)
	}
}

func TestList_RemoveOnlyTargetHandler(t *testing.T) {
	var l List[string]
	var got []string

	l.Add(func(v string) { got = append(got, "a:"+v) })
	removeB := l.Add(func(v string) { got = append(got, "b:"+v) })
	l.Add(func(v string) { got = append(got, "c:"+v) })

	removeB()
	removeB() // second call is a no-op

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	l.Emit("x")

	want := []string{"a:x", "c:x"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emit() after remove = %v, want %v", got, want)
	}
}

func TestList_PanicDoesNotStopOtherHandlers(t *testing.T) {
	var l List[int]
	var recovered any
	called := false

	l.SetPanicHandler(func(r any) { recovered = r })
	l.Add(func(int) { panic("boom") })
	l.Add(func(int) { called = true })

	l.Emit(0)

	if !called {
		t.Error("handler after panicking handler was not called")
	}
	if recovered != "boom" {
		t.Errorf("recovered = %v, want boom", recovered)
	}
}

func TestList_ConcurrentAddRemoveEmit(t *testing.T) {
	var l List[int]
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			remove := l.Add(func(int) {})
			l.Emit(1)
			remove()
		}()
	}
	wg.Wait()

	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}
