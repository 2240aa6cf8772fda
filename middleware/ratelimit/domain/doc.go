// Package domain define contratos e tipos de domínio para quota por janela fixa,
// sobrecarga e concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Advance concentra a regra da janela fixa; os stores só garantem atomicidade.
package domain
