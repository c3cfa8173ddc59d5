// Package preview reports the changes an upstream template merge would bring into a downstream
// repository and optionally renders them as an HTML diff artifact.
package preview
