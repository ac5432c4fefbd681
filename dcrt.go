/*
Package dcrt provides a pure Go implementation of the double-CRT (RNS) polynomial arithmetic that
underlies lattice-based homomorphic encryption, over power-of-two and arbitrary cyclotomic rings,
together with the BV, GHS and HYBRID key-switching procedures.

The ring package implements the modular arithmetic, the NTTs, the RNS polynomials and the basis
conversions; ring/ringqp extends them to the product of the ciphertext modulus Q and the auxiliary
modulus P; core/keyswitch implements the key-switching parameters, tables, keys and evaluator.
*/
package dcrt
