// Package repository define los contratos del Credential Store Gateway.
//
// Services y controllers dependen solo de estas interfaces; las
// implementaciones viven en internal/store/adapters (pg, memory).
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Una búsqueda sin filas retorna ErrNotFound (o un slice vacío en las Find*)
//   - El store no decide sobre credenciales: devuelve candidatos y el
//     service aplica la regla de "exactamente una fila"
package repository
