// Package normalize é a fronteira por onde toda resposta sai do processo.
//
// Boundary gera o id de correlação, recupera panics e emite um único registro
// de log por request. Fail classifica qualquer error (quota, domínio,
// validação, armazenamento, desconhecido) em um código da taxonomia e escreve
// o envelope de erro; Respond/Handle escrevem o envelope de sucesso.
// Handlers nunca formatam resposta sozinhos.
package normalize
