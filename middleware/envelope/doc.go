// Package envelope define a taxonomia fechada de erros da API e o formato único
// de resposta (envelope) usado em sucesso e em erro.
//
// As funções daqui são construção pura: não fazem log e não conhecem o
// classificador. Quem decide o código de erro é o pacote normalize.
package envelope
