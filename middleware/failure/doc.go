// Package failure define os sinais de falha que handlers e colaboradores
// (validação, regras de negócio, armazenamento) devolvem como error.
//
// Nenhum tipo daqui formata resposta: o pacote normalize classifica cada um
// em exatamente um código da taxonomia.
package failure
