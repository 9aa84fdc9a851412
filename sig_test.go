package sig

import (
	"fmt"
)

func ExampleNewSignal() {
	count := NewSignal(0)
	fmt.Println(count.Read())

	count.Write(10)
	fmt.Println(count.Read())

	// Output:
	// 0
	// 10
}

func ExampleNewComputed() {
	count := NewSignal(1)
	double := NewComputed(func() int {
		fmt.Println("doubling")
		return count.Read() * 2
	})
	plustwo := NewComputed(func() int {
		fmt.Println("adding")
		return double.Read() + 2
	})
	fmt.Println(count.Read())
	fmt.Println(double.Read())
	fmt.Println(plustwo.Read())

	count.Write(10)
	fmt.Println(count.Read())
	fmt.Println(double.Read())
	fmt.Println(plustwo.Read())

	// Output:
	// doubling
	// adding
	// 1
	// 2
	// 4
	// doubling
	// adding
	// 10
	// 20
	// 22
}

func ExampleNewEffect() {
	count := NewSignal(0)

	NewEffect(func() {
		fmt.Println("count is", count.Read())
	})

	count.Write(1)

	// Output:
	// count is 0
	// count is 1
}

func ExampleNewBatch() {
	first := NewSignal("Ada")
	last := NewSignal("Lovelace")

	NewEffect(func() {
		fmt.Println(first.Read(), last.Read())
	})

	NewBatch(func() {
		first.Write("Grace")
		last.Write("Hopper")
	})

	// Output:
	// Ada Lovelace
	// Grace Hopper
}

func ExampleNewRoot() {
	count := NewSignal(0)

	dispose := NewRoot(func(dispose func()) func() {
		NewEffect(func() {
			fmt.Println("count is", count.Read())
		})
		OnCleanup(func() { fmt.Println("disposed") })
		return dispose
	})

	count.Write(1)
	dispose()
	count.Write(2)

	// Output:
	// count is 0
	// count is 1
	// disposed
}
