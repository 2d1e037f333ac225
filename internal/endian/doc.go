// Package endian implements the byte-reversal primitives described in
// spec §4.1: sized load/store of signed and unsigned integers at either
// byte order, plus conditional reversal of integers and IEEE-754 floats
// through their bit-identical integral alias.
package endian
