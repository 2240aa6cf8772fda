// Package application contém os casos de uso (regras de aplicação) para quota
// por classe de rota e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, classe, cliente) retorna uma Decision com a janela usada.
package application
