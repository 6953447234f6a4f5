package vocab_test

import (
	"fmt"

	"github.com/matzehuels/annograph/pkg/vocab"
)

func ExampleNamespaces_Label() {
	ns := vocab.MustNamespaces(vocab.DefaultNamespaces())
	fmt.Println(ns.Label(vocab.HasTarget))
	fmt.Println(ns.Label(vocab.Extract))
	fmt.Println(ns.Label("https://example.org/scores/op27.mei"))
	// Output:
	// oa:hasTarget
	// mao:Extract
	// op27.mei
}

func ExamplePredicatesFor() {
	preds, _ := vocab.PredicatesFor(vocab.TypeExtract)
	fmt.Println(preds)
	_, ok := vocab.PredicatesFor(vocab.TypeUnknown)
	fmt.Println(ok)
	// Output:
	// [http://purl.org/vocab/frbr/core#embodiment]
	// false
}
