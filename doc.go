// Package rangebitmap provides a succinct range-indexed bitmap for
// evaluating equality, inequality and range predicates (and cardinality
// counts) over a large column of integer values.
//
// The structure is built once through a Builder and queried many times:
//
//	b, err := rangebitmap.NewBuilder(0, 1000)
//	if err != nil {
//	    return err
//	}
//	for _, v := range values {
//	    if err := b.Append(v); err != nil {
//	        return err
//	    }
//	}
//	rb, err := b.Seal()
//	matches, err := rb.Lte(42)
//
// Values are range encoded into per-bit-plane containers, one horizontal
// slice per 65536 rows, so a predicate costs at most bitWidth container
// operations per slice instead of one lookup per distinct value. All
// query methods are safe for unlimited concurrent readers; the structure
// is immutable after Seal.
//
// A sealed structure serializes to a zero-copy mappable layout; see
// WriteTo, FromBytes and Open.
package rangebitmap
