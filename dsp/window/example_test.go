package window

import "fmt"

func ExampleGenerate() {
	w := Generate(TypeHann, 4)
	fmt.Printf("%.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3])
	// Output:
	// 0.00 0.50 1.00 0.50
}

func ExampleApply() {
	buf := []float64{2, 2, 2, 2}
	Apply(TypeHann, buf)
	fmt.Printf("%.2f %.2f %.2f %.2f\n", buf[0], buf[1], buf[2], buf[3])
	// Output:
	// 0.00 1.00 2.00 1.00
}

func ExampleParseType() {
	t, err := ParseType("Blackman-Harris")
	if err != nil {
		panic(err)
	}

	gain, _ := CoherentGain(Generate(t, 1024))
	fmt.Printf("%s %.5f\n", t, gain)
	// Output:
	// blackmanharris 0.35875
}
