// Package repository define los contratos de persistencia del mirror local.
//
// Las implementaciones viven en internal/store/{pg,memory}. Los services solo
// conocen estas interfaces.
//
//	┌──────────────────────────────────────────┐
//	│      services (users, stats, auth)       │
//	└──────────────────────────────────────────┘
//	                    │
//	                    ▼
//	┌──────────────────────────────────────────┐
//	│  domain/repository (interfaces + tipos)  │
//	│  UserCopyRepository, StatisticRepository │
//	└──────────────────────────────────────────┘
//	            │                  │
//	            ▼                  ▼
//	     ┌────────────┐     ┌────────────┐
//	     │  store/pg  │     │store/memory│
//	     └────────────┘     └────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Campos opcionales son punteros: nil significa ausente, nunca epoch ni "".
//   - Errores de dominio en errors.go.
package repository
