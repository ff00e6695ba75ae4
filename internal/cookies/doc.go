// Package cookies decodes the Presto cookie store (cookies4.dat).
//
// The file is a tag stream holding a tree that mirrors DNS: the implicit root
// owns top-level domains such as "com", which own "opera", which owns "www".
// Every domain owns its cookies, a tree of path nodes and its subdomains.
// Parse rebuilds that tree; Flatten turns it into host/path/cookie rows and
// WriteNetscape exports those rows as a cookie jar file.
//
// Cookie values are never logged. Only counts, tags and offsets are.
package cookies
