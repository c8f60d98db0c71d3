// Package identity es el gateway hacia el identity provider externo.
//
// Provider es el contrato que implementa cada adapter (firebase, local) y habla
// en Record, la forma "de cable" del provider. Gateway envuelve un Provider y
// es el único punto que convierte Record a repository.UserCopy (ToUserModel).
// Ningún otro paquete toca Records.
package identity
